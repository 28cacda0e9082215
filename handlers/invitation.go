package handlers

import (
	"net/http"

	"expenshare-backend/models"
	"expenshare-backend/services"
	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InviteResult reports what happened to one invited account.
type InviteResult struct {
	UserID     string             `json:"user_id"`
	Invitation *models.Invitation `json:"invitation,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// POST /api/groups/:id/invite
func (h *Handler) Invite(c *gin.Context) {
	groupID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	accountID := utils.GetCurrentUserID(c)

	// Per-receiver failures go in the result list.
	if _, err := h.svc.Gate.Authorize(c.Request.Context(), groupID, accountID, services.ActionInvite); err != nil {
		utils.ServiceError(c, err)
		return
	}

	results := make([]InviteResult, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		result := InviteResult{UserID: raw}
		receiverID, err := uuid.Parse(raw)
		if err != nil {
			result.Error = "invalid user id"
			results = append(results, result)
			continue
		}
		err = h.retry(c, func() (err error) {
			result.Invitation, err = h.svc.Invitations.Invite(c.Request.Context(), groupID, accountID, receiverID)
			return err
		})
		if err != nil {
			if utils.StatusFor(err) == http.StatusInternalServerError {
				utils.ServiceError(c, err)
				return
			}
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	utils.SuccessResponse(c, http.StatusOK, "Invitations processed", results)
}

// GET /api/invitations
func (h *Handler) GetInvitations(c *gin.Context) {
	invitations, err := h.svc.Invitations.ListPending(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", invitations)
}

// POST /api/invitations/:id/accept
func (h *Handler) AcceptInvitation(c *gin.Context) {
	invitationID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var inv *models.Invitation
	err := h.retry(c, func() (err error) {
		inv, err = h.svc.Invitations.Accept(c.Request.Context(), invitationID, utils.GetCurrentUserID(c))
		return err
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Invitation accepted", inv)
}

// POST /api/invitations/:id/reject
func (h *Handler) RejectInvitation(c *gin.Context) {
	invitationID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.svc.Invitations.Reject(c.Request.Context(), invitationID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Invitation rejected", inv)
}
