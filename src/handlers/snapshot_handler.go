// src/handlers/snapshot_handler.go
package handlers

import (
	"net/http"

	"github.com/username/spendlens/src/services"
	"github.com/username/spendlens/src/utils"
)

type SnapshotHandler struct {
	snapshotService services.SnapshotService
}

func NewSnapshotHandler(snapshotService services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: snapshotService}
}

// HandleListSnapshots returns the monthly totals of one account, or the
// cross-account totals when account_id is omitted.
func (h *SnapshotHandler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryID(r, "account_id")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	snaps, err := h.snapshotService.ListSnapshots(r.Context(), accountID)
	if err != nil {
		sendServiceError(w, r, err, "list snapshots")
		return
	}
	utils.WriteJSON(w, http.StatusOK, snaps)
}
