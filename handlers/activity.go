package handlers

import (
	"net/http"

	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/activity
func (h *Handler) GetActivity(c *gin.Context) {
	var pagination utils.PaginationQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		utils.BadRequest(c, "Invalid pagination: "+err.Error())
		return
	}
	pagination.Normalize()

	activities, err := h.svc.Activity.AccountFeed(c.Request.Context(), utils.GetCurrentUserID(c), pagination.Offset(), pagination.Limit)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// GET /api/groups/:id/activity
func (h *Handler) GetGroupActivity(c *gin.Context) {
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

	activities, err := h.svc.Activity.GroupFeed(c.Request.Context(), groupID, utils.GetCurrentUserID(c), pagination.Offset(), pagination.Limit)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
