package handlers

import (
	"net/http"

	"expenshare-backend/models"
	"expenshare-backend/services"
	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SendOTPRequest struct {
	Email          string `json:"email" binding:"required,email"`
	UserName       string `json:"user_name" binding:"required,min=3,max=100"`
	Password       string `json:"password" binding:"required,min=6"`
	ProfilePicture string `json:"profile_picture"`
}

type VerifyOTPRequest struct {
	OTP string `json:"otp" binding:"required,len=6,numeric"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// POST /auth/send-otp
func (h *Handler) SendVerificationMail(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	otpID, registrationID, err := h.svc.Auth.SendVerificationMail(c.Request.Context(), services.Signup{
		Email:          req.Email,
		UserName:       req.UserName,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.SetCookie(c, utils.OTPCookie, otpID.String(), h.cfg.OTPTTL, h.cfg.CookieSecure)
	utils.SetCookie(c, utils.RegistrationCookie, registrationID.String(), h.cfg.OTPTTL, h.cfg.CookieSecure)
	utils.SuccessResponse(c, http.StatusOK, "OTP sent successfully", nil)
}

// POST /auth/verify-otp
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	otpID, ok := cookieUUID(c, utils.OTPCookie)
	if !ok {
		return
	}
	registrationID, ok := cookieUUID(c, utils.RegistrationCookie)
	if !ok {
		return
	}

	if err := h.svc.Auth.VerifyOTP(c.Request.Context(), otpID, registrationID, req.OTP); err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.ClearCookie(c, utils.OTPCookie, h.cfg.CookieSecure)
	utils.SuccessResponse(c, http.StatusOK, "OTP verified", nil)
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	registrationID, ok := cookieUUID(c, utils.RegistrationCookie)
	if !ok {
		return
	}

	user, err := h.svc.Auth.Register(c.Request.Context(), registrationID)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.ClearCookie(c, utils.RegistrationCookie, h.cfg.CookieSecure)
	h.startSession(c, http.StatusCreated, "Registration successful", user)
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.svc.Auth.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	h.startSession(c, http.StatusOK, "Login successful", user)
}

// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	utils.ClearCookie(c, utils.TokenCookie, h.cfg.CookieSecure)
	utils.SuccessResponse(c, http.StatusOK, "Logged out", nil)
}

func (h *Handler) startSession(c *gin.Context, status int, message string, user *models.User) {
	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}
	utils.SetCookie(c, utils.TokenCookie, token, h.jwt.TokenDuration(), h.cfg.CookieSecure)
	utils.SuccessResponse(c, status, message, AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}

func cookieUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw, err := c.Cookie(name)
	if err != nil {
		utils.BadRequest(c, "Missing "+name+" cookie, request a new code")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.BadRequest(c, "Invalid "+name+" cookie")
		return uuid.Nil, false
	}
	return id, true
}
