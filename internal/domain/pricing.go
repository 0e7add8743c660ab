package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ChildDiscount is the fraction of the adult price charged per child.
var ChildDiscount = decimal.NewFromFloat(0.5)

// DateLayout renders booking dates the way the storefront shows them.
const DateLayout = "Jan 2, 2006"

type Quote struct {
	UnitPrice Money
	Adults    int
	Children  int
	Rental    *Extra
	Addons    []Extra
}

// LineTotal prices adults at the unit price, children at ChildDiscount of it,
// and adds the rental and every addon once.
func (q Quote) LineTotal() (Money, error) {
	adults := q.UnitPrice.Mul(decimal.NewFromInt(int64(q.Adults)))
	children := q.UnitPrice.Mul(ChildDiscount).Mul(decimal.NewFromInt(int64(q.Children)))

	total, err := adults.Add(children)
	if err != nil {
		return Money{}, err
	}

	if q.Rental != nil {
		if total, err = total.Add(q.Rental.Price); err != nil {
			return Money{}, fmt.Errorf("rental: %w", err)
		}
	}

	for _, addon := range q.Addons {
		if total, err = total.Add(addon.Price); err != nil {
			return Money{}, fmt.Errorf("addon[%s]: %w", addon.Label, err)
		}
	}

	return total, nil
}

// Offer is the catalog snapshot an item is built from: an activity or a combo.
type Offer struct {
	ID            string
	Kind          Kind
	Title         string
	ImageURL      string
	Price         Money
	OriginalPrice *Money
	TimeSlots     []string
}

// Booking is what the visitor picked on a detail page.
type Booking struct {
	Date     time.Time
	Time     string
	Adults   int
	Children int
	Rental   *Extra
	Addons   []Extra
}

func NewLineItemInput(offer Offer, booking Booking) (LineItemInput, error) {
	if booking.Date.IsZero() {
		return LineItemInput{}, fmt.Errorf("%w: date is empty", ErrInvalidItem)
	}

	total, err := Quote{
		UnitPrice: offer.Price,
		Adults:    booking.Adults,
		Children:  booking.Children,
		Rental:    booking.Rental,
		Addons:    booking.Addons,
	}.LineTotal()
	if err != nil {
		return LineItemInput{}, fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	in := LineItemInput{
		ProductID:         offer.ID,
		Kind:              offer.Kind,
		Title:             offer.Title,
		ImageURL:          offer.ImageURL,
		UnitPrice:         offer.Price,
		OriginalUnitPrice: offer.OriginalPrice,
		Date:              booking.Date.Format(DateLayout),
		Time:              booking.Time,
		AdultCount:        booking.Adults,
		ChildCount:        booking.Children,
		SelectedRental:    booking.Rental,
		SelectedAddons:    booking.Addons,
		LineTotal:         total,
	}

	if err := in.Validate(); err != nil {
		return LineItemInput{}, err
	}

	return in, nil
}
