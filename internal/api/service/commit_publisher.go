package service

import (
	"codegen"
	"codegen/internal/gen"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// CommitEvent is published after a generator wrote files
type CommitEvent struct {
	Generator string             `json:"generator"`
	HasError  bool               `json:"hasError"`
	Files     []gen.ActionResult `json:"files"`
	At        time.Time          `json:"at"`
}

func newCommitEvent(generatorID string, hasError bool, results []gen.ActionResult) CommitEvent {
	return CommitEvent{
		Generator: generatorID,
		HasError:  hasError,
		Files:     results,
		At:        time.Now().UTC(),
	}
}

// CommitPublisher announces commits to whoever watches the output tree
type CommitPublisher interface {
	PublishCommit(ctx context.Context, event CommitEvent) error
}

// NatsCommitPublisher publishes commit events on gii.<generator>.committed
type NatsCommitPublisher struct {
	conn *nats.Conn
}

// NewCommitPublisher returns a NATS publisher, or one that drops events when
// no NATS connection is configured.
func NewCommitPublisher() CommitPublisher {
	if codegen.Nats == nil {
		return NoopCommitPublisher{}
	}
	return &NatsCommitPublisher{conn: codegen.Nats}
}

func commitSubject(generatorID string) string {
	return fmt.Sprintf("gii.%s.committed", generatorID)
}

func (slf *NatsCommitPublisher) PublishCommit(ctx context.Context, event CommitEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal commit event: %w", err)
	}
	subject := commitSubject(event.Generator)
	if err := slf.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %q: %w", subject, err)
	}
	return nil
}

type NoopCommitPublisher struct{}

func (NoopCommitPublisher) PublishCommit(ctx context.Context, event CommitEvent) error {
	return nil
}
