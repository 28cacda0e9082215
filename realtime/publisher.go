package realtime

import (
	"context"
	"encoding/json"

	"expenshare-backend/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Postgres refuses NOTIFY payloads of 8000 bytes or more.
const maxNotifyPayload = 7900

// PGPublisher fans events out to every instance through pg_notify. Each
// instance's listener feeds its own Hub. Events too large for NOTIFY are
// delivered to the local hub only.
type PGPublisher struct {
	db      *gorm.DB
	channel string
	local   *Hub
	log     *zap.Logger
}

func NewPGPublisher(db *gorm.DB, channel string, local *Hub, log *zap.Logger) *PGPublisher {
	return &PGPublisher{db: db, channel: channel, local: local, log: log}
}

func (p *PGPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if len(payload) > maxNotifyPayload {
		p.log.Debug("event too large for notify, delivering locally",
			zap.String("type", ev.Type), zap.Int("bytes", len(payload)))
		p.local.Deliver(ev)
		return nil
	}
	return database.Publish(p.db.WithContext(ctx), p.channel, string(payload))
}
