package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/nikolayk812/tourcart/internal/cart"
	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/nikolayk812/tourcart/internal/port"
	"github.com/nikolayk812/tourcart/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

// flakyStore wraps a real store and fails on demand.
type flakyStore struct {
	port.CartStore

	mu      sync.Mutex
	getErr  error
	setErr  error
	setCall int
}

func (s *flakyStore) Get(ctx context.Context, namespace string) ([]byte, error) {
	s.mu.Lock()
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return s.CartStore.Get(ctx, namespace)
}

func (s *flakyStore) Set(ctx context.Context, namespace string, payload []byte) error {
	s.mu.Lock()
	s.setCall++
	err := s.setErr
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return s.CartStore.Set(ctx, namespace, payload)
}

func (s *flakyStore) setCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setCall
}

func newFlakyStore() *flakyStore {
	return &flakyStore{CartStore: repository.NewMemoryStore()}
}

var fixedNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func newAggregator(t *testing.T, store port.CartStore, namespace string, opts ...cart.Option) *cart.Aggregator {
	t.Helper()

	opts = append([]cart.Option{cart.WithClock(func() time.Time { return fixedNow })}, opts...)
	agg, err := cart.NewAggregator(t.Context(), store, namespace, zerolog.Nop(), opts...)
	require.NoError(t, err)

	return agg
}

func aed(amount float64) domain.Money {
	return domain.Money{Amount: decimal.NewFromFloat(amount), Currency: domain.StoreCurrency}
}

func randomInput() domain.LineItemInput {
	price := aed(float64(gofakeit.Number(50, 500)))
	adults := gofakeit.Number(1, 4)
	children := gofakeit.Number(0, 3)

	total, err := domain.Quote{UnitPrice: price, Adults: adults, Children: children}.LineTotal()
	if err != nil {
		panic(err)
	}

	kind := domain.KindActivity
	if gofakeit.Bool() {
		kind = domain.KindCombo
	}

	return domain.LineItemInput{
		ProductID:  gofakeit.UUID(),
		Kind:       kind,
		Title:      gofakeit.Sentence(3),
		ImageURL:   gofakeit.URL(),
		UnitPrice:  price,
		Date:       gofakeit.Date().Format(domain.DateLayout),
		AdultCount: adults,
		ChildCount: children,
		LineTotal:  total,
	}
}

func sumLineTotals(items []domain.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal.Amount)
	}
	return sum
}

func assertItems(t *testing.T, expected, actual []domain.LineItem) {
	t.Helper()

	diff := cmp.Diff(expected, actual)
	assert.Empty(t, diff)
}
