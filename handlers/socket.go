package handlers

import (
	"net/url"

	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// GET /api/ws
func (h *Handler) Socket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: originHosts(h.cfg.CORSOrigins),
	})
	if err != nil {
		// Accept has already written the error response.
		h.log.Debug("websocket accept failed", zap.Error(err))
		return
	}

	accountID := utils.GetCurrentUserID(c)
	if err := h.hub.Serve(c.Request.Context(), conn, accountID); err != nil {
		h.log.Debug("websocket closed", zap.String("account_id", accountID.String()), zap.Error(err))
	}
}

// originHosts turns CORS origins into the host patterns websocket.Accept
// matches against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
			continue
		}
		hosts = append(hosts, o)
	}
	return hosts
}
