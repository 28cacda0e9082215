package database

import (
	"context"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Publish sends payload on a Postgres NOTIFY channel. Listeners in every
// instance (including this one) receive it.
func Publish(db *gorm.DB, channel, payload string) error {
	return db.Exec("SELECT pg_notify(?, ?)", channel, payload).Error
}

// Listen delivers NOTIFY payloads for channel to handle until ctx is done.
func Listen(ctx context.Context, dsn, channel string, log *zap.Logger, handle func(payload string)) error {
	listener := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("notify listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return err
	}

	go func() {
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// nil after a reconnect
				if n == nil {
					continue
				}
				handle(n.Extra)
			case <-time.After(90 * time.Second):
				if err := listener.Ping(); err != nil {
					log.Warn("notify listener ping failed", zap.Error(err))
				}
			}
		}
	}()

	log.Info("listening for group events", zap.String("channel", channel))
	return nil
}
