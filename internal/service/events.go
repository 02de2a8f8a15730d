package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-go-api/internal/observability"
)

// PermissionSyncer runs a unit of work and then triggers a single repository
// permission resynchronization. Batch operations wrap their updates in it so
// permissions are recomputed once after the batch commits, not per row.
type PermissionSyncer interface {
	UpdatePermissionsAfter(ctx context.Context, fn func() error) error
}

// MembershipEvent is the payload published when a membership changes state.
type MembershipEvent struct {
	Event        string    `json:"event"`
	StudentID    uint      `json:"student_id"`
	GroupingID   uint      `json:"grouping_id"`
	AssessmentID uint      `json:"assessment_id,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// MembershipEventPublisher fans membership lifecycle events out to
// interested consumers (mailers, dashboards).
type MembershipEventPublisher interface {
	Publish(ctx context.Context, event MembershipEvent) error
}

type natsPermissionSyncer struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPermissionSyncer builds a permission syncer that requests a resync
// over NATS after the wrapped work succeeds.
func NewNATSPermissionSyncer(conn *nats.Conn, subject string, logger zerolog.Logger) PermissionSyncer {
	return &natsPermissionSyncer{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "permission_syncer").Logger(),
	}
}

func (s *natsPermissionSyncer) UpdatePermissionsAfter(ctx context.Context, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}

	if s.conn == nil || s.subject == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"requested_at": time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.conn.Publish(s.subject, payload); err != nil {
		// the roster updates already committed; a missed resync is an
		// operational problem, not a caller error
		s.logger.Error().Err(err).Msg("failed to request permission resync")
	}

	return nil
}

type natsMembershipPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSMembershipPublisher builds an event publisher over NATS. A nil
// connection yields a publisher that drops events silently.
func NewNATSMembershipPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) MembershipEventPublisher {
	return &natsMembershipPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "membership_publisher").Logger(),
	}
}

func (p *natsMembershipPublisher) Publish(ctx context.Context, event MembershipEvent) error {
	if p.conn == nil || p.subject == "" {
		return nil
	}

	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject+"."+event.Event, payload); err != nil {
		p.logger.Warn().Err(err).Str("event", event.Event).Msg("failed to publish membership event")
		return err
	}

	observability.MembershipEvents().WithLabelValues(event.Event).Inc()
	return nil
}
