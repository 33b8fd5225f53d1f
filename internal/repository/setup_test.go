package repository

import (
	"context"
	"testing"
	"time"

	"kudos-cafe/internal/config"
	"kudos-cafe/internal/database"
	"kudos-cafe/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and applies the schema migrations.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping repository test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{MaxConnections: 10}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, database.Migrate(pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func seedProfile(t *testing.T, pool *pgxpool.Pool, name string, role model.Role) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO profiles (id, display_name, email, role) VALUES ($1, $2, $3, $4)`,
		id, name, id.String()+"@example.com", string(role))
	require.NoError(t, err)
	return id
}

func seedMenuItem(t *testing.T, pool *pgxpool.Pool, name, category, price string, available bool) model.MenuItem {
	t.Helper()
	item := model.MenuItem{
		Name:          name,
		Category:      category,
		Price:         decimal.RequireFromString(price),
		Available:     available,
		StockQuantity: 10,
	}
	require.NoError(t, NewMenuRepository(pool, zerolog.Nop()).Create(context.Background(), &item))
	return item
}

func seedOrder(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, status model.OrderStatus, total string) model.Order {
	t.Helper()
	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	now := time.Now().UTC().Truncate(time.Microsecond)
	order := model.Order{
		ID:            uuid.New(),
		UserID:        userID,
		OrderType:     model.OrderTypePickup,
		Status:        status,
		PaymentStatus: model.PaymentPaid,
		TotalAmount:   decimal.RequireFromString(total),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, &order))
	require.NoError(t, tx.Commit(ctx))
	return order
}
