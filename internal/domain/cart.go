package domain

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/currency"
)

type Kind string

const (
	KindActivity Kind = "activity"
	KindCombo    Kind = "combo"
)

func (k Kind) Valid() bool {
	return k == KindActivity || k == KindCombo
}

// MaxChildren mirrors the guest picker limit on the booking pages.
const MaxChildren = 10

var ErrInvalidItem = errors.New("invalid line item")

// Extra is an optional paid selection such as an hourly rental or an addon.
type Extra struct {
	Label string `json:"label"`
	Price Money  `json:"price"`
}

// LineItem is one booking selection held in the cart. Display fields and prices
// are snapshotted when the item is added and never re-read from the catalog.
type LineItem struct {
	ID                string  `json:"id"`
	ProductID         string  `json:"productId"`
	Kind              Kind    `json:"kind"`
	Title             string  `json:"title"`
	ImageURL          string  `json:"imageUrl"`
	UnitPrice         Money   `json:"unitPrice"`
	OriginalUnitPrice *Money  `json:"originalUnitPrice,omitempty"`
	Date              string  `json:"date"`
	Time              string  `json:"time,omitempty"`
	AdultCount        int     `json:"adultCount"`
	ChildCount        int     `json:"childCount"`
	SelectedRental    *Extra  `json:"selectedRental,omitempty"`
	SelectedAddons    []Extra `json:"selectedAddons,omitempty"`
	LineTotal         Money   `json:"lineTotal"`

	AddedAt time.Time `json:"addedAt"`
}

// LineItemInput is what a caller hands to the cart; the cart assigns the ID.
type LineItemInput struct {
	ProductID         string  `json:"productId"`
	Kind              Kind    `json:"kind"`
	Title             string  `json:"title"`
	ImageURL          string  `json:"imageUrl"`
	UnitPrice         Money   `json:"unitPrice"`
	OriginalUnitPrice *Money  `json:"originalUnitPrice,omitempty"`
	Date              string  `json:"date"`
	Time              string  `json:"time,omitempty"`
	AdultCount        int     `json:"adultCount"`
	ChildCount        int     `json:"childCount"`
	SelectedRental    *Extra  `json:"selectedRental,omitempty"`
	SelectedAddons    []Extra `json:"selectedAddons,omitempty"`
	LineTotal         Money   `json:"lineTotal"`
}

func (in LineItemInput) Validate() error {
	switch {
	case in.ProductID == "":
		return fmt.Errorf("%w: productId is empty", ErrInvalidItem)
	case !in.Kind.Valid():
		return fmt.Errorf("%w: kind[%s] is not valid", ErrInvalidItem, in.Kind)
	case in.Title == "":
		return fmt.Errorf("%w: title is empty", ErrInvalidItem)
	case in.Date == "":
		return fmt.Errorf("%w: date is empty", ErrInvalidItem)
	case in.AdultCount < 1:
		return fmt.Errorf("%w: adultCount must be at least 1", ErrInvalidItem)
	case in.ChildCount < 0 || in.ChildCount > MaxChildren:
		return fmt.Errorf("%w: childCount must be between 0 and %d", ErrInvalidItem, MaxChildren)
	case in.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unitPrice is negative", ErrInvalidItem)
	case in.LineTotal.IsNegative():
		return fmt.Errorf("%w: lineTotal is negative", ErrInvalidItem)
	}

	if err := sameCurrency(in.LineTotal.Currency, in.UnitPrice, in.OriginalUnitPrice, in.SelectedRental, in.SelectedAddons); err != nil {
		return err
	}

	return nil
}

func sameCurrency(unit currency.Unit, price Money, original *Money, rental *Extra, addons []Extra) error {
	prices := []Money{price}
	if original != nil {
		prices = append(prices, *original)
	}
	if rental != nil {
		prices = append(prices, rental.Price)
	}
	for _, addon := range addons {
		prices = append(prices, addon.Price)
	}

	for _, p := range prices {
		if p.Currency != unit {
			return fmt.Errorf("%w: currency[%s] differs from lineTotal currency[%s]", ErrInvalidItem, p.Currency, unit)
		}
	}

	return nil
}

// NewLineItem turns a validated input into a cart line with the given id.
func NewLineItem(id string, in LineItemInput, addedAt time.Time) LineItem {
	return LineItem{
		ID:                id,
		ProductID:         in.ProductID,
		Kind:              in.Kind,
		Title:             in.Title,
		ImageURL:          in.ImageURL,
		UnitPrice:         in.UnitPrice,
		OriginalUnitPrice: in.OriginalUnitPrice,
		Date:              in.Date,
		Time:              in.Time,
		AdultCount:        in.AdultCount,
		ChildCount:        in.ChildCount,
		SelectedRental:    in.SelectedRental,
		SelectedAddons:    append([]Extra(nil), in.SelectedAddons...),
		LineTotal:         in.LineTotal,
		AddedAt:           addedAt,
	}
}

// LineItemPatch is a shallow partial update. Nil fields are left untouched, so the
// optional rental and original price are dropped with ClearRental and
// ClearOriginalUnitPrice, which win over a value sent alongside. LineTotal is
// never derived from the other fields: a caller changing guests or extras must
// send the recomputed total as well.
type LineItemPatch struct {
	ProductID         *string  `json:"productId,omitempty"`
	Kind              *Kind    `json:"kind,omitempty"`
	Title             *string  `json:"title,omitempty"`
	ImageURL          *string  `json:"imageUrl,omitempty"`
	UnitPrice         *Money   `json:"unitPrice,omitempty"`
	OriginalUnitPrice *Money   `json:"originalUnitPrice,omitempty"`
	Date              *string  `json:"date,omitempty"`
	Time              *string  `json:"time,omitempty"`
	AdultCount        *int     `json:"adultCount,omitempty"`
	ChildCount        *int     `json:"childCount,omitempty"`
	SelectedRental    *Extra   `json:"selectedRental,omitempty"`
	SelectedAddons    *[]Extra `json:"selectedAddons,omitempty"`
	LineTotal         *Money   `json:"lineTotal,omitempty"`

	ClearRental            bool `json:"clearRental,omitempty"`
	ClearOriginalUnitPrice bool `json:"clearOriginalUnitPrice,omitempty"`
}

func (p LineItemPatch) Apply(item LineItem) LineItem {
	if p.ProductID != nil {
		item.ProductID = *p.ProductID
	}
	if p.Kind != nil {
		item.Kind = *p.Kind
	}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.ImageURL != nil {
		item.ImageURL = *p.ImageURL
	}
	if p.UnitPrice != nil {
		item.UnitPrice = *p.UnitPrice
	}
	if p.OriginalUnitPrice != nil {
		original := *p.OriginalUnitPrice
		item.OriginalUnitPrice = &original
	}
	if p.Date != nil {
		item.Date = *p.Date
	}
	if p.Time != nil {
		item.Time = *p.Time
	}
	if p.AdultCount != nil {
		item.AdultCount = *p.AdultCount
	}
	if p.ChildCount != nil {
		item.ChildCount = *p.ChildCount
	}
	if p.SelectedRental != nil {
		rental := *p.SelectedRental
		item.SelectedRental = &rental
	}
	if p.SelectedAddons != nil {
		item.SelectedAddons = append([]Extra(nil), (*p.SelectedAddons)...)
	}
	if p.LineTotal != nil {
		item.LineTotal = *p.LineTotal
	}
	if p.ClearRental {
		item.SelectedRental = nil
	}
	if p.ClearOriginalUnitPrice {
		item.OriginalUnitPrice = nil
	}

	return item
}

type Cart struct {
	OwnerID string
	Items   []LineItem
}

// Input converts an existing line back into add-time input, used to validate
// the result of a patch.
func (item LineItem) Input() LineItemInput {
	return LineItemInput{
		ProductID:         item.ProductID,
		Kind:              item.Kind,
		Title:             item.Title,
		ImageURL:          item.ImageURL,
		UnitPrice:         item.UnitPrice,
		OriginalUnitPrice: item.OriginalUnitPrice,
		Date:              item.Date,
		Time:              item.Time,
		AdultCount:        item.AdultCount,
		ChildCount:        item.ChildCount,
		SelectedRental:    item.SelectedRental,
		SelectedAddons:    item.SelectedAddons,
		LineTotal:         item.LineTotal,
	}
}

func (c Cart) ItemCount() int {
	return len(c.Items)
}

// TotalAmount sums line totals in the currency of the first item.
// An empty cart totals zero in the store currency.
func (c Cart) TotalAmount() Money {
	if len(c.Items) == 0 {
		return ZeroMoney(StoreCurrency)
	}

	total := ZeroMoney(c.Items[0].LineTotal.Currency)
	for _, item := range c.Items {
		// the cart rejects lines in a second currency on add and update
		total.Amount = total.Amount.Add(item.LineTotal.Amount)
	}

	return total
}
