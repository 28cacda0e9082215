package handlers

import (
	"net/http"

	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/groups/:id/balances
func (h *Handler) GetGroupBalances(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	summary, err := h.svc.Ledger.GroupBalances(c.Request.Context(), groupID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// GET /api/groups/:id/balances/simplified
func (h *Handler) GetSimplifiedDebts(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	transfers, err := h.svc.Ledger.SimplifiedDebts(c.Request.Context(), groupID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", transfers)
}

// GET /api/balances
func (h *Handler) GetOverallBalances(c *gin.Context) {
	summary, err := h.svc.Ledger.AccountSummary(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", summary)
}
