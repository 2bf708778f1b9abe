package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"localfelo_backend/internal/config"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// PGBridge relays Postgres NOTIFY payloads into a Hub.
type PGBridge struct {
	dsn     string
	channel string
	hub     *Hub
	logger  *zap.Logger
}

// NewPGBridge returns nil when no channel is configured.
func NewPGBridge(cfg *config.Config, hub *Hub, logger *zap.Logger) *PGBridge {
	if cfg.RealtimePGChannel == "" {
		return nil
	}
	return &PGBridge{dsn: cfg.DBSource, channel: cfg.RealtimePGChannel, hub: hub, logger: logger.Named("pgbridge")}
}

// Run listens until ctx is done.
func (b *PGBridge) Run(ctx context.Context) error {
	listener := pq.NewListener(b.dsn, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			b.logger.Warn("Postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	defer listener.Close()

	if err := listener.Listen(b.channel); err != nil {
		return fmt.Errorf("listen on %s: %w", b.channel, err)
	}
	b.logger.Info("Listening for realtime changes", zap.String("channel", b.channel))

	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; changes may have been missed but polling covers them.
			if n != nil {
				b.handle(n)
			}
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				b.logger.Warn("Postgres listener ping failed", zap.Error(err))
			}
		}
	}
}

func (b *PGBridge) handle(n *pq.Notification) {
	var c Change
	if err := json.Unmarshal([]byte(n.Extra), &c); err != nil {
		b.logger.Warn("Ignoring malformed change payload", zap.Error(err), zap.String("payload", n.Extra))
		return
	}
	if c.Table == "" {
		return
	}
	b.hub.Publish(c)
}
