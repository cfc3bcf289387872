// src/handlers/rule_handler.go
package handlers

import (
	"net/http"

	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/services"
	"github.com/username/spendlens/src/utils"
)

type RuleHandler struct {
	ruleService services.RuleService
}

func NewRuleHandler(ruleService services.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// HandleListRules returns every rule, or only active ones with ?active=true.
func (h *RuleHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.ruleService.ListRules(r.Context(), queryBool(r, "active"))
	if err != nil {
		sendServiceError(w, r, err, "list rules")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rules)
}

func (h *RuleHandler) HandleGetRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	rule, err := h.ruleService.GetRule(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "load rule")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	var in models.RuleCreate
	if err := decodeJSON(w, r, &in); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	rule, err := h.ruleService.CreateRule(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, err, "create rule")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, rule)
}

func (h *RuleHandler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in models.RuleUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in.ID = id
	rule, err := h.ruleService.UpdateRule(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, err, "update rule")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.ruleService.DeleteRule(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
