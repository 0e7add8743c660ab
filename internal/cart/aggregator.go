package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/nikolayk812/tourcart/internal/port"
	"github.com/rs/zerolog"
)

const defaultWriteTimeout = 2 * time.Second

// ErrLineCheckingOut is returned when a line that a running checkout is
// confirming gets patched.
var ErrLineCheckingOut = errors.New("line is being checked out")

// Aggregator owns the ordered line items of one profile and writes the whole list
// to the store after every mutation. Store failures never reach the caller: the
// in-memory cart stays usable and the next successful write catches up.
type Aggregator struct {
	mu        sync.Mutex
	namespace string
	items     []domain.LineItem
	open      bool
	claimed   map[string]struct{} // lines held by a running checkout

	// checkoutMu serializes checkouts of this cart; it is never taken under mu.
	checkoutMu sync.Mutex

	store        port.CartStore
	logger       zerolog.Logger
	now          func() time.Time
	newID        func() string
	writeTimeout time.Duration
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(a *Aggregator) { a.newID = newID }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.writeTimeout = d }
}

// NewAggregator rehydrates the cart stored under namespace. A missing, unreadable
// or malformed snapshot yields an empty cart.
func NewAggregator(ctx context.Context, store port.CartStore, namespace string, logger zerolog.Logger, opts ...Option) (*Aggregator, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if namespace == "" {
		return nil, fmt.Errorf("namespace is empty")
	}

	a := &Aggregator{
		namespace:    namespace,
		store:        store,
		logger:       logger.With().Str("cart", namespace).Logger(),
		now:          time.Now,
		newID:        uuid.NewString,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.items = a.load(ctx)

	return a, nil
}

func (a *Aggregator) load(ctx context.Context) []domain.LineItem {
	payload, err := a.store.Get(ctx, a.namespace)
	if errors.Is(err, port.ErrNotFound) {
		return nil
	}
	if err != nil {
		a.logger.Warn().Err(err).Msg("cart load failed, starting empty")
		return nil
	}

	items, err := decodeItems(payload)
	if err != nil {
		a.logger.Warn().Err(err).Msg("stored cart is malformed, starting empty")
		return nil
	}

	return items
}

// persist must be called with mu held so writes reach the store in mutation order.
func (a *Aggregator) persist(ctx context.Context) {
	payload, err := encodeItems(a.items)
	if err != nil {
		a.logger.Error().Err(err).Msg("cart encode failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.writeTimeout)
	defer cancel()

	if err := a.store.Set(ctx, a.namespace, payload); err != nil {
		a.logger.Warn().Err(err).Int("items", len(a.items)).Msg("cart persist failed")
	}
}

func (a *Aggregator) Namespace() string {
	return a.namespace
}

// Add appends a new line with a fresh id and opens the cart drawer.
func (a *Aggregator) Add(ctx context.Context, in domain.LineItemInput) (domain.LineItem, error) {
	if err := in.Validate(); err != nil {
		return domain.LineItem{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkCurrency(in.LineTotal, ""); err != nil {
		return domain.LineItem{}, err
	}

	item := domain.NewLineItem(a.uniqueID(), in, a.now())
	a.items = append(a.items, item)
	a.open = true
	a.persist(ctx)

	return item, nil
}

func (a *Aggregator) uniqueID() string {
	for {
		id := a.newID()
		if a.indexOf(id) < 0 {
			return id
		}
	}
}

// Remove deletes the line with id. Unknown ids are ignored.
func (a *Aggregator) Remove(ctx context.Context, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.indexOf(id)
	if i < 0 {
		return false
	}

	a.items = slices.Delete(a.items, i, i+1)
	a.persist(ctx)

	return true
}

// Update shallow-merges patch into the line with id. It never recomputes
// LineTotal; callers changing guests or extras send the new total in the patch.
// Unknown ids are ignored and reported as false.
func (a *Aggregator) Update(ctx context.Context, id string, patch domain.LineItemPatch) (domain.LineItem, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.indexOf(id)
	if i < 0 {
		return domain.LineItem{}, false, nil
	}
	if _, ok := a.claimed[id]; ok {
		return domain.LineItem{}, true, ErrLineCheckingOut
	}

	updated := patch.Apply(a.items[i])
	if err := updated.Input().Validate(); err != nil {
		return domain.LineItem{}, true, err
	}
	if err := a.checkCurrency(updated.LineTotal, id); err != nil {
		return domain.LineItem{}, true, err
	}

	a.items[i] = updated
	a.persist(ctx)

	return updated, true, nil
}

func (a *Aggregator) Clear(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = nil
	a.persist(ctx)
}

// Items returns a copy in insertion order.
func (a *Aggregator) Items() []domain.LineItem {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slices.Clone(a.items)
}

func (a *Aggregator) Snapshot() domain.Cart {
	return domain.Cart{OwnerID: a.namespace, Items: a.Items()}
}

func (a *Aggregator) ItemCount() int {
	return a.Snapshot().ItemCount()
}

func (a *Aggregator) TotalAmount() domain.Money {
	return a.Snapshot().TotalAmount()
}

func (a *Aggregator) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.open
}

func (a *Aggregator) SetOpen(open bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.open = open
}

// claim copies the current lines and holds them for a checkout. Patches to held
// lines fail until release.
func (a *Aggregator) claim() domain.Cart {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.claimed = make(map[string]struct{}, len(a.items))
	for _, item := range a.items {
		a.claimed[item.ID] = struct{}{}
	}

	return domain.Cart{OwnerID: a.namespace, Items: slices.Clone(a.items)}
}

// release ends a claim. When confirmed, the held lines leave the cart and the
// drawer closes; lines added meanwhile stay.
func (a *Aggregator) release(ctx context.Context, confirmed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	claimed := a.claimed
	a.claimed = nil
	if !confirmed {
		return
	}

	a.items = slices.DeleteFunc(a.items, func(item domain.LineItem) bool {
		_, ok := claimed[item.ID]
		return ok
	})
	a.open = false
	a.persist(ctx)
}

func (a *Aggregator) indexOf(id string) int {
	return slices.IndexFunc(a.items, func(item domain.LineItem) bool {
		return item.ID == id
	})
}

// checkCurrency keeps the cart in one currency; skipID excludes the line being updated.
func (a *Aggregator) checkCurrency(total domain.Money, skipID string) error {
	for _, item := range a.items {
		if item.ID == skipID {
			continue
		}
		if item.LineTotal.Currency != total.Currency {
			return fmt.Errorf("%w: cart is priced in %s, item in %s", domain.ErrInvalidItem, item.LineTotal.Currency, total.Currency)
		}
	}

	return nil
}
