package handlers

import (
	"net/http"
	"strconv"
	"time"

	"expenshare-backend/models"
	"expenshare-backend/services"
	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/transactions
func (h *Handler) AddTransaction(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	txn, err := h.svc.Transactions.Add(c.Request.Context(), utils.GetCurrentUserID(c), services.TransactionInput{
		Type:       req.Type,
		Amount:     amount,
		Category:   req.Category,
		Title:      req.Title,
		Notes:      req.Notes,
		InvoiceURL: req.InvoiceURL,
		Date:       date,
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Transaction added", txn)
}

// GET /api/transactions?year=&month=
func (h *Handler) ListTransactions(c *gin.Context) {
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	month, ok := queryInt(c, "month")
	if !ok {
		return
	}

	txns, err := h.svc.Transactions.List(c.Request.Context(), utils.GetCurrentUserID(c), year, month)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", txns)
}

// DELETE /api/transactions/:id
func (h *Handler) DeleteTransaction(c *gin.Context) {
	transactionID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Transactions.Delete(c.Request.Context(), utils.GetCurrentUserID(c), transactionID); err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Transaction deleted", nil)
}

// GET /api/transactions/history?year=
func (h *Handler) MonthlyHistory(c *gin.Context) {
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	history, err := h.svc.Transactions.History(c.Request.Context(), utils.GetCurrentUserID(c), year)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", history)
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		utils.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return n, true
}
