package handlers

import (
	"net/http"

	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
)

type FCMTokenRequest struct {
	Token string `json:"fcm_token" binding:"required"`
}

// GET /api/users/me
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.svc.Auth.Me(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", user.ToResponse())
}

// PUT /api/users/me/fcm-token
func (h *Handler) UpdateFCMToken(c *gin.Context) {
	var req FCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Auth.UpdateFCMToken(c.Request.Context(), utils.GetCurrentUserID(c), req.Token); err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "FCM token updated", nil)
}

// GET /api/users/search?q=
func (h *Handler) SearchUsers(c *gin.Context) {
	var pagination utils.PaginationQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		utils.BadRequest(c, "Invalid pagination: "+err.Error())
		return
	}
	pagination.Normalize()

	users, err := h.svc.Auth.SearchUsers(c.Request.Context(), utils.GetCurrentUserID(c), c.Query("q"), pagination.Limit)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", users)
}
