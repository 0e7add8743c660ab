package cart_test

import (
	"sync"
	"testing"

	"github.com/nikolayk812/tourcart/internal/cart"
	"github.com/nikolayk812/tourcart/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OneAggregatorPerNamespace(t *testing.T) {
	store := newFlakyStore()
	registry := cart.NewRegistry(store, zerolog.Nop())
	ctx := t.Context()

	results := make([]*cart.Aggregator, 32)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg, err := registry.Get(ctx, "profile-a")
			assert.NoError(t, err)
			results[i] = agg
		}()
	}
	wg.Wait()

	for _, agg := range results {
		require.Same(t, results[0], agg)
	}

	other, err := registry.Get(ctx, "profile-b")
	require.NoError(t, err)
	assert.NotSame(t, results[0], other)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistry_RehydratesFromStore(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := t.Context()

	seed := newAggregator(t, store, "profile")
	_, err := seed.Add(ctx, randomInput())
	require.NoError(t, err)

	registry := cart.NewRegistry(store, zerolog.Nop())
	agg, err := registry.Get(ctx, "profile")
	require.NoError(t, err)
	assertItems(t, seed.Items(), agg.Items())
}

func TestRegistry_EmptyNamespace(t *testing.T) {
	registry := cart.NewRegistry(repository.NewMemoryStore(), zerolog.Nop())

	_, err := registry.Get(t.Context(), "")
	require.EqualError(t, err, "namespace is empty")
	assert.Zero(t, registry.Len())
}

func TestRegistry_Find(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := t.Context()

	seed := newAggregator(t, store, "stored")
	_, err := seed.Add(ctx, randomInput())
	require.NoError(t, err)

	registry := cart.NewRegistry(store, zerolog.Nop())

	tests := []struct {
		name      string
		namespace string
		wantNil   bool
		wantErr   bool
		wantLen   int
	}{
		{
			name:      "unknown profile: not registered",
			namespace: "unknown",
			wantNil:   true,
			wantLen:   0,
		},
		{
			name:      "stored profile: ok",
			namespace: "stored",
			wantLen:   1,
		},
		{
			name:    "empty namespace: error",
			wantErr: true,
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := registry.Find(ctx, tt.namespace)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				if tt.wantNil {
					assert.Nil(t, agg)
				} else {
					require.NotNil(t, agg)
					assertItems(t, seed.Items(), agg.Items())
				}
			}
			assert.Equal(t, tt.wantLen, registry.Len())
		})
	}
}

func TestRegistry_FindAfterGet(t *testing.T) {
	registry := cart.NewRegistry(repository.NewMemoryStore(), zerolog.Nop())
	ctx := t.Context()

	created, err := registry.Get(ctx, "profile")
	require.NoError(t, err)

	found, err := registry.Find(ctx, "profile")
	require.NoError(t, err)
	assert.Same(t, created, found)
}
