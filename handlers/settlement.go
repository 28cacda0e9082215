package handlers

import (
	"net/http"

	"expenshare-backend/models"
	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/groups/:id/settle
func (h *Handler) CreateSettlement(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req models.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	payeeID, err := uuid.Parse(req.PayeeID)
	if err != nil {
		utils.BadRequest(c, "Invalid payee_id")
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	var settlement *models.Settlement
	err = h.retry(c, func() (err error) {
		settlement, err = h.svc.Ledger.Settle(c.Request.Context(), groupID, utils.GetCurrentUserID(c), payeeID, amount, req.Note)
		return err
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Settlement recorded", settlement)
}

// GET /api/groups/:id/settlements
func (h *Handler) GetGroupSettlements(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	settlements, err := h.svc.Ledger.ListSettlements(c.Request.Context(), groupID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", settlements)
}
