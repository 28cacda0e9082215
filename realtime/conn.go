package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Serve registers conn for accountID and pumps events to it until the
// peer goes away or ctx ends. Inbound messages are ignored.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, accountID uuid.UUID) error {
	c := h.Register(accountID)
	defer h.Unregister(c)

	ctx = conn.CloseRead(ctx)
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	h.log.Debug("socket connected", zap.String("account_id", accountID.String()))
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
