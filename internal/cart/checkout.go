package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/nikolayk812/tourcart/internal/port"
)

var ErrEmptyCart = errors.New("cart is empty")

// Checkout confirms every line in the cart and removes the confirmed lines.
// There is no payment step. Checkouts of one cart run one at a time; a second
// caller sees only what the first left behind. Lines cannot be patched while
// their confirmation is being published, and nothing leaves the cart unless the
// publish succeeded.
func Checkout(ctx context.Context, agg *Aggregator, publisher port.BookingPublisher) (domain.BookingConfirmed, error) {
	agg.checkoutMu.Lock()
	defer agg.checkoutMu.Unlock()

	snap := agg.claim()
	if snap.ItemCount() == 0 {
		agg.release(ctx, false)
		return domain.BookingConfirmed{}, ErrEmptyCart
	}

	event := domain.BookingConfirmed{
		Reference:   uuid.New(),
		OwnerID:     snap.OwnerID,
		Items:       snap.Items,
		Total:       snap.TotalAmount(),
		ConfirmedAt: time.Now().UTC(),
	}

	if err := publisher.PublishBookingConfirmed(ctx, event); err != nil {
		agg.release(ctx, false)
		return domain.BookingConfirmed{}, fmt.Errorf("publisher.PublishBookingConfirmed: %w", err)
	}

	agg.release(ctx, true)

	return event, nil
}
