package notification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/messaging"
	"github.com/feral-file/ff-editions/internal/metrics"
	"github.com/feral-file/ff-editions/internal/store"
)

// Dispatcher delivers best-effort notifications when acquisitions settle.
// Failures are logged and never returned; a notification is sent at most once per
// (kind, subject) because the dedupe log is written before publishing.
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/notification.go -package=mocks -mock_names=Dispatcher=MockDispatcher
type Dispatcher interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Config holds dispatcher configuration
type Config struct {
	// SubjectPrefix is prepended to the notification kind to form the subject
	SubjectPrefix  string
	PublishTimeout time.Duration
}

type dispatcher struct {
	config    Config
	store     store.Store
	publisher messaging.Publisher
	jcs       adapter.JCS
	json      adapter.JSON
	clock     adapter.Clock
}

// NewDispatcher creates a dispatcher. publisher may be nil, in which case notifications are
// only recorded and logged.
func NewDispatcher(cfg Config, st store.Store, publisher messaging.Publisher, jcs adapter.JCS, jsonAdapter adapter.JSON, clock adapter.Clock) Dispatcher {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "editions"
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &dispatcher{
		config:    cfg,
		store:     st,
		publisher: publisher,
		jcs:       jcs,
		json:      jsonAdapter,
		clock:     clock,
	}
}

// DedupeKey is the hex sha256 of the canonical JSON of the notification identity
func DedupeKey(jcs adapter.JCS, jsonAdapter adapter.JSON, kind domain.NotificationKind, subjectID string) (string, error) {
	identity, err := jsonAdapter.Marshal(map[string]string{
		"kind":       string(kind),
		"subject_id": subjectID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal notification identity: %w", err)
	}
	canonical, err := jcs.Transform(identity)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize notification identity: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Notify records and publishes the notification
func (d *dispatcher) Notify(ctx context.Context, n domain.Notification) {
	fields := []zap.Field{
		zap.String("kind", string(n.Kind)),
		zap.String("subject_id", n.SubjectID),
		zap.String("post_id", n.PostID),
	}

	now := d.clock.Now()
	if n.Timestamp.IsZero() {
		n.Timestamp = now
	}
	if n.EventID == "" {
		n.EventID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	}

	key, err := DedupeKey(d.jcs, d.json, n.Kind, n.SubjectID)
	if err != nil {
		d.warn(ctx, n, "Failed to derive notification dedupe key", append(fields, zap.Error(err))...)
		return
	}

	payload, err := d.json.Marshal(n)
	if err != nil {
		d.warn(ctx, n, "Failed to marshal notification", append(fields, zap.Error(err))...)
		return
	}

	recorded, err := d.store.RecordNotification(ctx, key, string(n.Kind), payload)
	if err != nil {
		d.warn(ctx, n, "Failed to record notification", append(fields, zap.Error(err))...)
		return
	}
	if !recorded {
		logger.DebugCtx(ctx, "Notification already sent", fields...)
		metrics.Notifications.WithLabelValues(string(n.Kind), "duplicate").Inc()
		return
	}

	if d.publisher == nil {
		logger.InfoCtx(ctx, "Notification recorded", fields...)
		metrics.Notifications.WithLabelValues(string(n.Kind), "recorded").Inc()
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.config.PublishTimeout)
	defer cancel()

	subject := d.config.SubjectPrefix + "." + string(n.Kind)
	if err := d.publisher.Publish(pubCtx, subject, payload, key); err != nil {
		d.warn(ctx, n, "Failed to publish notification", append(fields, zap.Error(err))...)

		// Forget the record so a later confirmation read can try again
		if err := d.store.DeleteNotification(ctx, key); err != nil {
			logger.WarnCtx(ctx, "Failed to delete notification record", append(fields, zap.Error(err))...)
		}
		return
	}

	logger.InfoCtx(ctx, "Notification sent", append(fields, zap.String("subject", subject))...)
	metrics.Notifications.WithLabelValues(string(n.Kind), "sent").Inc()
}

func (d *dispatcher) warn(ctx context.Context, n domain.Notification, msg string, fields ...zap.Field) {
	logger.WarnCtx(ctx, msg, fields...)
	metrics.Notifications.WithLabelValues(string(n.Kind), "failed").Inc()
}
