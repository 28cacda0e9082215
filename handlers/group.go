package handlers

import (
	"net/http"

	"expenshare-backend/models"
	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	group, err := h.svc.Gate.CreateGroup(c.Request.Context(), utils.GetCurrentUserID(c), req)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Group created", group)
}

// GET /api/groups
func (h *Handler) GetGroups(c *gin.Context) {
	groups, err := h.svc.Gate.ListGroups(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", groups)
}

// GET /api/groups/:id
func (h *Handler) GetGroup(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	group, err := h.svc.Gate.GetGroup(c.Request.Context(), groupID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", group)
}

// PUT /api/groups/:id
func (h *Handler) UpdateGroup(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var group *models.GroupResponse
	err := h.retry(c, func() (err error) {
		group, err = h.svc.Gate.UpdateGroup(c.Request.Context(), groupID, utils.GetCurrentUserID(c), req)
		return err
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Group updated", group)
}

// DELETE /api/groups/:id
func (h *Handler) DeleteGroup(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	err := h.retry(c, func() error {
		return h.svc.Gate.DeleteGroup(c.Request.Context(), groupID, utils.GetCurrentUserID(c))
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Group deleted", nil)
}

// POST /api/groups/:id/leave
func (h *Handler) LeaveGroup(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	err := h.retry(c, func() error {
		return h.svc.Gate.Leave(c.Request.Context(), groupID, utils.GetCurrentUserID(c))
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Left group", nil)
}

// DELETE /api/groups/:id/members/:mid
func (h *Handler) RemoveMember(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	memberID, ok := utils.ParamUUID(c, "mid")
	if !ok {
		return
	}
	err := h.retry(c, func() error {
		return h.svc.Gate.RemoveMember(c.Request.Context(), groupID, utils.GetCurrentUserID(c), memberID)
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Member removed", nil)
}
