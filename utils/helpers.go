package utils

import (
	"errors"
	"net/http"

	"expenshare-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrNotAMember, http.StatusForbidden},
	{services.ErrNotAuthorized, http.StatusForbidden},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrNoSuchBalance, http.StatusNotFound},
	{services.ErrInvalidAmount, http.StatusBadRequest},
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrOverSettlement, http.StatusUnprocessableEntity},
	{services.ErrDuplicateInvitation, http.StatusConflict},
	{services.ErrAlreadyMember, http.StatusConflict},
	{services.ErrInvitationClosed, http.StatusConflict},
	{services.ErrOutstandingBalance, http.StatusConflict},
	{services.ErrConcurrentModification, http.StatusConflict},
	{services.ErrEmailTaken, http.StatusConflict},
	{services.ErrUserNameTaken, http.StatusConflict},
	{services.ErrOTPNotFound, http.StatusBadRequest},
	{services.ErrIncorrectOTP, http.StatusUnauthorized},
	{services.ErrRegistrationExpired, http.StatusBadRequest},
	{services.ErrNotVerified, http.StatusForbidden},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// ServiceError writes err with the status it maps to. Unknown errors are
// reported without detail.
func ServiceError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		InternalError(c, "Something went wrong")
		return
	}
	ErrorResponse(c, status, err.Error())
}

// Get current user ID from context (set by auth middleware)
func GetCurrentUserID(c *gin.Context) uuid.UUID {
	userID, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil
	}
	return userID.(uuid.UUID)
}

// ParamUUID reads a path parameter as a UUID, answering 400 when it is
// not one.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// Pagination helpers
type PaginationQuery struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

func (p *PaginationQuery) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
}

func (p *PaginationQuery) Offset() int {
	return (p.Page - 1) * p.Limit
}
