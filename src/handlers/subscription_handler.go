// src/handlers/subscription_handler.go
package handlers

import (
	"net/http"

	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/services"
	"github.com/username/spendlens/src/utils"
)

type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) HandleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptionService.ListSubscriptions(r.Context(), queryBool(r, "include_archived"))
	if err != nil {
		sendServiceError(w, r, err, "list subscriptions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, subs)
}

// HandleDetect runs recurring-charge detection over the whole ledger.
func (h *SubscriptionHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	result, err := h.subscriptionService.DetectRecurringCharges(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "detect recurring charges")
		return
	}
	logger.FromContext(r.Context()).Info("Recurring charge detection finished", "created", result.Created, "updated", result.Updated)
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *SubscriptionHandler) HandleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in models.SubscriptionUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in.ID = id
	sub, err := h.subscriptionService.UpdateSubscription(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, err, "update subscription")
		return
	}
	utils.WriteJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) HandleArchiveSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.subscriptionService.ArchiveSubscription(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "archive subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
