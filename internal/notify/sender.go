package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/safetrack-app/safetrack-go/internal/repository"
)

// Notification is one push message addressed to a user. Data rides along for
// the mobile client to act on (deep links, analysis payloads).
type Notification struct {
	UserID int64
	Title  string
	Body   string
	Data   map[string]string
}

// Sender delivers notifications. Implementations are injected at bootstrap;
// callers treat delivery failures as non-fatal and never retry.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// ErrUnregisteredToken is returned by a PushTransport when a device token is
// no longer valid and should be dropped.
var ErrUnregisteredToken = errors.New("device token not registered")

// PushTransport delivers one message to one device token. The concrete
// transport (FCM or similar) lives outside this service.
type PushTransport interface {
	Push(ctx context.Context, token string, n Notification) error
}

// PushSender fans a notification out to every device token registered for
// the user. Invalid tokens are dropped; per-token failures are logged and
// do not fail the send as long as at least one delivery was attempted.
type PushSender struct {
	tokens    *repository.TokenRepository
	transport PushTransport
	log       *zap.Logger
}

// NewPushSender creates a push sender.
func NewPushSender(tokens *repository.TokenRepository, transport PushTransport, log *zap.Logger) *PushSender {
	return &PushSender{tokens: tokens, transport: transport, log: log}
}

// Send delivers the notification to all of the user's devices.
func (s *PushSender) Send(ctx context.Context, n Notification) error {
	tokens, err := s.tokens.GetByUser(n.UserID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		s.log.Warn("no device tokens for user", zap.Int64("user_id", n.UserID))
		return nil
	}

	succeeded, failed := 0, 0
	for _, token := range tokens {
		err := s.transport.Push(ctx, token, n)
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrUnregisteredToken):
			failed++
			if delErr := s.tokens.Delete(token); delErr != nil {
				s.log.Error("failed to drop unregistered token", zap.Error(delErr))
			}
		default:
			failed++
			s.log.Error("push delivery failed",
				zap.Int64("user_id", n.UserID),
				zap.Error(err),
			)
		}
	}

	s.log.Info("notification dispatched",
		zap.Int64("user_id", n.UserID),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
	)
	return nil
}

// LogSender logs notifications instead of delivering them. Used when no push
// transport is configured (local development).
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.log.Info("notification (log only)",
		zap.Int64("user_id", n.UserID),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	)
	return nil
}
