package handlers

import (
	"net/http"

	"expenshare-backend/models"
	"expenshare-backend/services"
	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func entryInput(c *gin.Context) (services.EntryInput, bool) {
	var req models.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return services.EntryInput{}, false
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return services.EntryInput{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return services.EntryInput{}, false
	}

	in := services.EntryInput{
		Amount:        amount,
		Category:      req.Category,
		Title:         req.Title,
		Date:          date,
		Note:          req.Note,
		AttachmentURL: req.AttachmentURL,
	}
	if req.PayerID != "" {
		if in.PayerID, err = uuid.Parse(req.PayerID); err != nil {
			utils.BadRequest(c, "Invalid payer_id")
			return services.EntryInput{}, false
		}
	}
	for _, raw := range req.Participants {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid participant id "+raw)
			return services.EntryInput{}, false
		}
		in.Participants = append(in.Participants, id)
	}
	return in, true
}

// POST /api/groups/:id/entries
func (h *Handler) CreateEntry(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	in, ok := entryInput(c)
	if !ok {
		return
	}

	var entry *models.LedgerEntry
	err := h.retry(c, func() (err error) {
		entry, err = h.svc.Ledger.RecordEntry(c.Request.Context(), groupID, utils.GetCurrentUserID(c), in)
		return err
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	h.respondEntry(c, http.StatusCreated, "Entry added", entry.ID)
}

// GET /api/groups/:id/entries
func (h *Handler) GetGroupEntries(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var pagination utils.PaginationQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		utils.BadRequest(c, "Invalid pagination: "+err.Error())
		return
	}
	pagination.Normalize()

	entries, err := h.svc.Ledger.ListEntries(c.Request.Context(), groupID, utils.GetCurrentUserID(c), pagination.Offset(), pagination.Limit)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", entries)
}

// GET /api/entries/:id
func (h *Handler) GetEntry(c *gin.Context) {
	entryID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	h.respondEntry(c, http.StatusOK, "", entryID)
}

// PUT /api/entries/:id
func (h *Handler) UpdateEntry(c *gin.Context) {
	entryID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	in, ok := entryInput(c)
	if !ok {
		return
	}

	err := h.retry(c, func() error {
		_, err := h.svc.Ledger.EditEntry(c.Request.Context(), entryID, utils.GetCurrentUserID(c), in)
		return err
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	h.respondEntry(c, http.StatusOK, "Entry updated", entryID)
}

// DELETE /api/entries/:id
func (h *Handler) DeleteEntry(c *gin.Context) {
	entryID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	err := h.retry(c, func() error {
		return h.svc.Ledger.DeleteEntry(c.Request.Context(), entryID, utils.GetCurrentUserID(c))
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Entry deleted", nil)
}

func (h *Handler) respondEntry(c *gin.Context, status int, message string, entryID uuid.UUID) {
	entry, err := h.svc.Ledger.GetEntry(c.Request.Context(), entryID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, status, message, entry)
}
