// Package broadcast pushes match views to downstream subscribers after every
// state change.
package broadcast

import (
	"context"

	"github.com/okian/pulse/internal/domain/types"
)

// Publisher sends match views to subscribers.
type Publisher interface {
	Publish(ctx context.Context, view types.MatchView) error
	Close() error
}

// NopPublisher drops every view. It is used when no broker is configured.
type NopPublisher struct{}

// NewNopPublisher returns a Publisher that does nothing.
func NewNopPublisher() NopPublisher { return NopPublisher{} }

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, types.MatchView) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

var _ Publisher = NopPublisher{}
