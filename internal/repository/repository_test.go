package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/tourcart/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			"../migrations/01_cart_snapshots.up.sql"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return postgresContainer, connStr, nil
}

// testStoreContract runs the behaviour every CartStore must share.
func testStoreContract(t *testing.T, store port.CartStore) {
	t.Helper()

	tests := []struct {
		name      string
		namespace string
		payloads  []string
		want      string
		wantErr   error
		wantError string
	}{
		{
			name:      "get after single set: ok",
			namespace: gofakeit.UUID(),
			payloads:  []string{`{"version":1,"items":[]}`},
			want:      `{"version":1,"items":[]}`,
		},
		{
			name:      "last writer wins: ok",
			namespace: gofakeit.UUID(),
			payloads:  []string{`{"version":1,"items":[]}`, `{"version":1,"items":[{"id":"a"}]}`},
			want:      `{"version":1,"items":[{"id":"a"}]}`,
		},
		{
			name:      "get unknown namespace: not found",
			namespace: gofakeit.UUID(),
			wantErr:   port.ErrNotFound,
		},
		{
			name:      "get with empty namespace: error",
			namespace: "",
			wantError: "namespace is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()

			for _, payload := range tt.payloads {
				require.NoError(t, store.Set(ctx, tt.namespace, []byte(payload)))
			}

			got, err := store.Get(ctx, tt.namespace)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}

	t.Run("set with empty namespace: error", func(t *testing.T) {
		err := store.Set(t.Context(), "", []byte(`{}`))
		require.EqualError(t, err, "namespace is empty")
	})
}
