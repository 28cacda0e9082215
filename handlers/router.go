package handlers

import (
	"net/http"

	"expenshare-backend/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(h.log.Named("http")))
	r.Use(middleware.CORSMiddleware(h.cfg.CORSOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": h.cfg.AppName,
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/send-otp", h.SendVerificationMail)
		auth.POST("/verify-otp", h.VerifyOTP)
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(h.jwt))
	{
		// Realtime
		api.GET("/ws", h.Socket)

		// User
		api.GET("/users/me", h.GetProfile)
		api.PUT("/users/me/fcm-token", h.UpdateFCMToken)
		api.GET("/users/search", h.SearchUsers)

		// Personal transactions
		api.POST("/transactions", h.AddTransaction)
		api.GET("/transactions", h.ListTransactions)
		api.DELETE("/transactions/:id", h.DeleteTransaction)
		api.GET("/transactions/history", h.MonthlyHistory)

		// Groups
		api.POST("/groups", h.CreateGroup)
		api.GET("/groups", h.GetGroups)
		api.GET("/groups/:id", h.GetGroup)
		api.PUT("/groups/:id", h.UpdateGroup)
		api.DELETE("/groups/:id", h.DeleteGroup)
		api.POST("/groups/:id/leave", h.LeaveGroup)
		api.DELETE("/groups/:id/members/:mid", h.RemoveMember)

		// Invitations
		api.POST("/groups/:id/invite", h.Invite)
		api.GET("/invitations", h.GetInvitations)
		api.POST("/invitations/:id/accept", h.AcceptInvitation)
		api.POST("/invitations/:id/reject", h.RejectInvitation)

		// Entries
		api.POST("/groups/:id/entries", h.CreateEntry)
		api.GET("/groups/:id/entries", h.GetGroupEntries)
		api.GET("/entries/:id", h.GetEntry)
		api.PUT("/entries/:id", h.UpdateEntry)
		api.DELETE("/entries/:id", h.DeleteEntry)

		// Balances
		api.GET("/groups/:id/balances", h.GetGroupBalances)
		api.GET("/groups/:id/balances/simplified", h.GetSimplifiedDebts)
		api.GET("/balances", h.GetOverallBalances)

		// Settlements
		api.POST("/groups/:id/settle", h.CreateSettlement)
		api.GET("/groups/:id/settlements", h.GetGroupSettlements)

		// Activity
		api.GET("/activity", h.GetActivity)
		api.GET("/groups/:id/activity", h.GetGroupActivity)
	}

	return r
}
