package port

import (
	"context"
	"errors"

	"github.com/nikolayk812/tourcart/internal/domain"
)

var ErrNotFound = errors.New("not found")

// CartStore keeps one serialized cart per namespace key. Implementations never
// interpret the payload.
type CartStore interface {
	Get(ctx context.Context, namespace string) ([]byte, error)
	Set(ctx context.Context, namespace string, payload []byte) error
}

type BookingPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event domain.BookingConfirmed) error
}
