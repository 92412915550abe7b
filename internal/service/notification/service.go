package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

// ErrNoRecipients is returned when neither explicit nor default targets exist.
var ErrNoRecipients = errors.New("no notification recipients")

// Request describes one notification to fan out. A nil Targets slice means the
// default recipients are used; CheckRecent enables the de-duplication window.
type Request struct {
	Subject     models.Instance
	Category    models.NotificationCategory
	Context     models.NotificationContext
	Targets     []models.User
	CheckRecent bool
}

// Notifier is the notification entry point used by plugins.
type Notifier interface {
	Notify(ctx context.Context, req Request) error
}

// Store persists notification records and lists default recipients.
type Store interface {
	SaveNotification(ctx context.Context, record models.NotificationRecord) error
	ListDefaultRecipients(ctx context.Context) ([]models.User, error)
}

// RecentGuard tracks which (category, subject, user) tuples were notified recently.
type RecentGuard interface {
	// Claim returns true when no notification was recorded for key inside the window.
	Claim(ctx context.Context, key string) (bool, error)
}

// Channel delivers a notification to a user over one transport.
type Channel interface {
	Name() string
	CanDeliver(user models.User) bool
	Deliver(ctx context.Context, user models.User, content models.NotificationContext) error
}

// Service fans notifications out to users over the configured channels.
type Service struct {
	store    Store
	guard    RecentGuard
	channels []Channel
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the notification service. guard may be nil, in which case
// CheckRecent is ignored.
func NewService(store Store, guard RecentGuard, channels []Channel, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		guard:    guard,
		channels: channels,
		logger:   logger,
		now:      time.Now,
	}
}

// Notify records and delivers req to every target. Per-target failures are
// logged and do not abort the fan-out.
func (s *Service) Notify(ctx context.Context, req Request) error {
	if req.Subject == nil {
		return errors.New("notification subject is required")
	}

	targets := req.Targets
	if targets == nil {
		defaults, err := s.store.ListDefaultRecipients(ctx)
		if err != nil {
			return fmt.Errorf("resolve default recipients: %w", err)
		}
		targets = defaults
	}
	if len(targets) == 0 {
		return ErrNoRecipients
	}

	for _, user := range targets {
		if req.CheckRecent && s.guard != nil {
			fresh, err := s.guard.Claim(ctx, recentKey(req, user))
			if err != nil {
				s.logger.Warn("recent notification check failed", zap.Int64("user_id", user.ID), zap.Error(err))
			} else if !fresh {
				s.logger.Debug("skipping recently notified user",
					zap.Int64("user_id", user.ID),
					zap.String("category", string(req.Category)))
				continue
			}
		}

		delivered := s.deliver(ctx, user, req.Context)

		record := models.NotificationRecord{
			Category:     req.Category,
			SubjectModel: req.Subject.ModelName(),
			SubjectID:    req.Subject.InstanceID(),
			UserID:       user.ID,
			Context:      req.Context,
			Channels:     delivered,
			CreatedAt:    s.now().UTC(),
		}
		if err := s.store.SaveNotification(ctx, record); err != nil {
			s.logger.Error("failed to save notification", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	return nil
}

func (s *Service) deliver(ctx context.Context, user models.User, content models.NotificationContext) []string {
	delivered := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		if !ch.CanDeliver(user) {
			continue
		}
		if err := ch.Deliver(ctx, user, content); err != nil {
			s.logger.Error("notification delivery failed",
				zap.String("channel", ch.Name()),
				zap.Int64("user_id", user.ID),
				zap.Error(err))
			continue
		}
		delivered = append(delivered, ch.Name())
	}
	return delivered
}

func recentKey(req Request, user models.User) string {
	return fmt.Sprintf("notify:%s:%s:%d:%d", req.Category, req.Subject.ModelName(), req.Subject.InstanceID(), user.ID)
}
