//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/microshop/checkout/internal/catalog"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "catalog",
				"POSTGRES_PASSWORD": "catalog",
				"POSTGRES_DB":       "catalog",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://catalog:catalog@%s:%s/catalog?sslmode=disable", host, port.Port())

	var pool *pgxpool.Pool
	require.Eventually(t, func() bool {
		pool, err = catalog.NewPool(ctx, url)
		if err != nil {
			return false
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return false
		}
		return true
	}, time.Minute, time.Second)
	t.Cleanup(pool.Close)

	require.NoError(t, catalog.RunMigrations(ctx, pool))
	return pool
}

func TestPostgresRepository(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)
	repo := catalog.NewPostgresRepository(pool)

	seed := []catalog.Product{
		{
			ID:          "OLJCESPC7Z",
			Name:        "Sunglasses",
			Description: "Aviator sunglasses.",
			Picture:     "/static/img/products/sunglasses.jpg",
			Price:       decimal.RequireFromString("19.99"),
			Categories:  []string{"accessories"},
		},
		{
			ID:         "66VCHSJNUP",
			Name:       "Tank Top",
			Price:      decimal.RequireFromString("18.99"),
			Categories: []string{"clothing", "tops"},
		},
	}
	require.NoError(t, repo.Upsert(ctx, seed))

	t.Run("get by id", func(t *testing.T) {
		p, err := repo.GetByID(ctx, "OLJCESPC7Z")
		require.NoError(t, err)
		assert.Equal(t, "Sunglasses", p.Name)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("19.99")), "price %s", p.Price)
		assert.Equal(t, []string{"accessories"}, p.Categories)
	})

	t.Run("get missing id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		products, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "66VCHSJNUP", products[0].ID)
	})

	t.Run("get by ids", func(t *testing.T) {
		products, err := repo.GetByIDs(ctx, []string{"OLJCESPC7Z", "missing"})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "OLJCESPC7Z", products[0].ID)
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		update := seed[0]
		update.Price = decimal.RequireFromString("24.99")
		require.NoError(t, repo.Upsert(ctx, []catalog.Product{update}))

		p, err := repo.GetByID(ctx, "OLJCESPC7Z")
		require.NoError(t, err)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("24.99")), "price %s", p.Price)
	})
}

func TestCatalogHTTPSurface(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)

	store := catalog.NewStore(catalog.NewPostgresRepository(pool))
	require.NoError(t, store.Upsert(ctx, []catalog.Product{{
		ID:    "1YMWWN1N4O",
		Name:  "Watch",
		Price: decimal.RequireFromString("109.99"),
	}}))
	require.NoError(t, store.Warm(ctx))

	mux := http.NewServeMux()
	catalog.NewServer(store).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/products/1YMWWN1N4O")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		PriceUSD struct {
			CurrencyCode string `json:"currency_code"`
			Units        int64  `json:"units"`
			Nanos        int32  `json:"nanos"`
		} `json:"price_usd"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Watch", payload.Name)
	assert.Equal(t, "USD", payload.PriceUSD.CurrencyCode)
	assert.Equal(t, int64(109), payload.PriceUSD.Units)
	assert.Equal(t, int32(990_000_000), payload.PriceUSD.Nanos)

	resp404, err := http.Get(srv.URL + "/products/nope")
	require.NoError(t, err)
	defer resp404.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp404.StatusCode)
}
