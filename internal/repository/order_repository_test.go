package repository

import (
	"context"
	"testing"
	"time"

	"kudos-cafe/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	user := seedProfile(t, pool, "Wanjiru", model.RoleCustomer)
	latte := seedMenuItem(t, pool, "Latte", "drinks", "250.00", true)
	samosa := seedMenuItem(t, pool, "Samosa", "snacks", "80.00", true)

	now := time.Now().UTC().Truncate(time.Microsecond)
	order := &model.Order{
		ID:            uuid.New(),
		UserID:        user,
		OrderType:     model.OrderTypeDineIn,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPaid,
		TotalAmount:   decimal.RequireFromString("660.00"),
		DepositPaid:   decimal.NewNullDecimal(decimal.RequireFromString("200.00")),
		Notes:         "window seat",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	items := []model.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, MenuItemID: latte.ID, Name: latte.Name, UnitPrice: latte.Price, Quantity: 2},
		{ID: uuid.New(), OrderID: order.ID, MenuItemID: samosa.ID, Name: samosa.Name, UnitPrice: samosa.Price, Quantity: 2},
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
	require.NoError(t, tx.Commit(ctx))

	assert.Positive(t, order.OrderNumber)

	got, gotItems, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, order.OrderNumber, got.OrderNumber)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.True(t, order.TotalAmount.Equal(got.TotalAmount))
	require.True(t, got.DepositPaid.Valid)
	assert.True(t, decimal.RequireFromString("200").Equal(got.DepositPaid.Decimal))
	assert.Equal(t, "window seat", got.Notes)
	assert.True(t, now.Equal(got.CreatedAt))

	require.Len(t, gotItems, 2)
	assert.Equal(t, "Latte", gotItems[0].Name)
	assert.Equal(t, 2, gotItems[0].Quantity)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())

	order, items, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Nil(t, items)
}

func TestOrderRepository_RollbackLeavesNothing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())
	user := seedProfile(t, pool, "Otieno", model.RoleCustomer)

	order := &model.Order{
		ID:            uuid.New(),
		UserID:        user,
		OrderType:     model.OrderTypePickup,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentUnpaid,
		TotalAmount:   decimal.NewFromInt(100),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))

	// Unknown menu item violates the foreign key.
	err = repo.CreateOrderItems(ctx, tx, []model.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, MenuItemID: uuid.New(), Name: "x", UnitPrice: decimal.NewFromInt(1), Quantity: 1},
	})
	require.Error(t, err)
	require.NoError(t, tx.Rollback(ctx))

	got, _, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_ListAndUpdate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	alice := seedProfile(t, pool, "Alice", model.RoleCustomer)
	bob := seedProfile(t, pool, "Bob", model.RoleCustomer)

	a1 := seedOrder(t, pool, alice, model.StatusPending, "100")
	seedOrder(t, pool, alice, model.StatusDelivered, "200")
	seedOrder(t, pool, bob, model.StatusPending, "300")

	mine, err := repo.ListByUser(ctx, alice, Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := repo.ListAll(ctx, model.StatusPending, Page{})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	all, err := repo.ListAll(ctx, "", Page{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.UpdateStatus(ctx, nil, a1.ID, model.StatusConfirmed))
	require.NoError(t, repo.UpdatePaymentStatus(ctx, nil, a1.ID, model.PaymentRefunded))

	got, _, err := repo.GetByID(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)

	err = repo.UpdateStatus(ctx, nil, uuid.New(), model.StatusReady)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestOrderRepository_GetForUpdate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())
	user := seedProfile(t, pool, "Amina", model.RoleCustomer)
	order := seedOrder(t, pool, user, model.StatusConfirmed, "500")

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	locked, err := repo.GetForUpdate(ctx, tx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	assert.Equal(t, model.StatusConfirmed, locked.Status)

	missing, err := repo.GetForUpdate(ctx, tx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
