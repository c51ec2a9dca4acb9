package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

// Broadcaster relays a raw message to every socket of a local room.
type Broadcaster interface {
	Broadcast(site, page string, payload []byte)
}

// NATSNotifier publishes remote-save messages on a subject every instance
// listens to.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

var _ ports.SaveNotifier = (*NATSNotifier)(nil)

// NewNATSNotifier publishes on subject through conn.
func NewNATSNotifier(conn *nats.Conn, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject}
}

func (n *NATSNotifier) NotifySaved(_ context.Context, site, page, versionTag string) error {
	if err := n.conn.Publish(n.subject, domain.NewRemoteSave(site, page, versionTag)); err != nil {
		return fmt.Errorf("publish remote-save: %w", err)
	}
	return nil
}

// Subscribe relays every remote-save message on subject to the local rooms
// of the matching page. The subscription ends when ctx is cancelled.
func Subscribe(ctx context.Context, conn *nats.Conn, subject string, rooms Broadcaster, logger *slog.Logger) (*nats.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		var event domain.RemoteSave
		if err := json.Unmarshal(msg.Data, &event); err != nil || event.Site == "" || event.Page == "" {
			logger.Warn("drop malformed remote-save", "subject", msg.Subject, "error", err)
			return
		}
		rooms.Broadcast(event.Site, event.Page, msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			logger.Warn("unsubscribe remote-save", "error", err)
		}
	}()
	return sub, nil
}
