package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kudos-cafe/internal/cache"
	"kudos-cafe/internal/config"
	"kudos-cafe/internal/database"
	"kudos-cafe/internal/events"
	"kudos-cafe/internal/handler"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/realtime"
	"kudos-cafe/internal/refund"
	"kudos-cafe/internal/repository"
	"kudos-cafe/internal/service"
	"kudos-cafe/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
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
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{MaxConnections: 10}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(pool, zerolog.Nop()))
	return pool
}

// setupTestServer wires the whole stack the way cmd/api does, with
// in-process cache, realtime and event backends.
func setupTestServer(t *testing.T, pool *pgxpool.Pool) http.Handler {
	t.Helper()
	logger := zerolog.Nop()

	orderRepo := repository.NewOrderRepository(pool, logger)
	messageRepo := repository.NewMessageRepository(pool, logger)
	menuRepo := repository.NewMenuRepository(pool, logger)

	store, err := storage.NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)

	mem := cache.NewMemoryStore(time.Hour, time.Minute)
	hub := realtime.NewHub(16, logger)
	t.Cleanup(hub.Close)

	out := service.Notifications{Realtime: hub, Events: events.NewNopPublisher(), Producer: "test"}
	policy := refund.Policy{ThresholdMinutes: 5, PartialFraction: decimal.RequireFromString("0.35"), Currency: "KES"}

	orderService := service.NewOrderService(orderRepo, menuRepo, mem, out, time.Now, logger)
	messageService := service.NewMessageService(orderRepo, messageRepo, policy, mem, out, time.Now, logger)
	reviewService := service.NewReviewService(repository.NewReviewRepository(pool, logger), orderRepo, mem, logger)
	galleryService := service.NewGalleryService(repository.NewGalleryRepository(pool, logger), store, "/media", 1<<20, logger)
	adminService := service.NewAdminService(repository.NewProfileRepository(pool, logger), repository.NewAnalyticsRepository(pool, logger), mem, logger)

	return New(Handlers{
		Order:   handler.NewOrderHandler(orderService, logger),
		Message: handler.NewMessageHandler(messageService, logger),
		Stream:  handler.NewStreamHandler(messageService, hub, 0, logger),
		Menu:    handler.NewMenuHandler(service.NewMenuService(menuRepo, logger), logger),
		Review:  handler.NewReviewHandler(reviewService, logger),
		Gallery: handler.NewGalleryHandler(galleryService, 1<<20, logger),
		Admin:   handler.NewAdminHandler(adminService, logger),
	}, testAPIKey, logger)
}

func seedProfile(t *testing.T, pool *pgxpool.Pool, name string, role model.Role) model.Actor {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO profiles (id, display_name, email, role) VALUES ($1, $2, $3, $4)`,
		id, name, id.String()+"@example.com", string(role))
	require.NoError(t, err)
	return model.Actor{ID: id, Role: role}
}

func seedMenuItem(t *testing.T, pool *pgxpool.Pool, name, price string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO menu_items (name, category, price, available, stock_quantity)
		 VALUES ($1, 'breakfast', $2, TRUE, 20) RETURNING id`,
		name, price).Scan(&id)
	require.NoError(t, err)
	return id
}

func do(t *testing.T, h http.Handler, method, path string, actor *model.Actor, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	if actor != nil {
		req.Header.Set("X-Actor-ID", actor.ID.String())
		req.Header.Set("X-Actor-Role", string(actor.Role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCancellationWorkflow_Integration(t *testing.T) {
	pool := setupTestDB(t)
	server := setupTestServer(t, pool)

	customer := seedProfile(t, pool, "Wanjiru", model.RoleCustomer)
	staff := seedProfile(t, pool, "Otieno", model.RoleAdmin)
	chai := seedMenuItem(t, pool, "Masala Chai", "150.00")
	mandazi := seedMenuItem(t, pool, "Mandazi", "50.00")

	var order model.OrderDetails
	t.Run("customer places an order", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/orders", &customer, model.OrderRequest{
			OrderType: model.OrderTypePickup,
			Items: []model.OrderItemRequest{
				{MenuItemID: chai, Quantity: 2},
				{MenuItemID: mandazi, Quantity: 4},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

		assert.Equal(t, model.StatusPending, order.Status)
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("500")))
		assert.True(t, order.CanCancel)
		assert.False(t, order.CanReorder)
	})

	var result model.CancellationResult
	t.Run("fresh order gets the partial refund", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/orders/"+order.ID.String()+"/cancellation", &customer,
			model.CancellationRequest{ReasonCode: model.ReasonOrderedByMistake, RefundDetails: "M-Pesa 0712345678"},
			"Idempotency-Key", "cancel-1")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

		assert.True(t, result.IsPartial)
		assert.True(t, result.RefundAmount.Equal(decimal.RequireFromString("175")))
		assert.True(t, result.Message.IsUrgent)
		assert.Equal(t, model.MessageCancellationRequest, result.Message.Type)
	})

	t.Run("replayed submission is rejected", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/orders/"+order.ID.String()+"/cancellation", &customer,
			model.CancellationRequest{ReasonCode: model.ReasonOrderedByMistake, RefundDetails: "M-Pesa 0712345678"},
			"Idempotency-Key", "cancel-1")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("another customer cannot see the order", func(t *testing.T) {
		stranger := seedProfile(t, pool, "Kamau", model.RoleCustomer)
		w := do(t, server, http.MethodGet, "/api/orders/"+order.ID.String(), &stranger, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff see an urgent unread thread", func(t *testing.T) {
		w := do(t, server, http.MethodGet, "/api/messages/threads", &staff, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var threads []struct {
			OrderID     uuid.UUID `json:"orderId"`
			UnreadCount int       `json:"unreadCount"`
			HasUrgent   bool      `json:"hasUrgent"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &threads))
		require.Len(t, threads, 1)
		assert.Equal(t, order.ID, threads[0].OrderID)
		assert.Equal(t, 1, threads[0].UnreadCount)
		assert.True(t, threads[0].HasUrgent)
	})

	t.Run("customer cannot approve", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/admin/messages/"+result.Message.ID.String()+"/approve", &customer, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff approve the refund", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/admin/messages/"+result.Message.ID.String()+"/approve", &staff,
			model.DecisionRequest{Note: "Sorry to see you go"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = do(t, server, http.MethodGet, "/api/orders/"+order.ID.String(), &customer, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var updated model.OrderDetails
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, model.StatusCancelled, updated.Status)
		assert.Equal(t, model.PaymentRefunded, updated.PaymentStatus)
		assert.False(t, updated.CanCancel)
		assert.True(t, updated.CanReorder)
	})

	t.Run("approving twice conflicts", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/admin/messages/"+result.Message.ID.String()+"/approve", &staff, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("denying an approved request conflicts", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/admin/messages/"+result.Message.ID.String()+"/deny", &staff, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("cancelled order can be reordered", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/orders/"+order.ID.String()+"/reorder", &customer,
			model.ReorderRequest{Note: "Same again please"})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})
}

func TestMenuAPI_Integration(t *testing.T) {
	pool := setupTestDB(t)
	server := setupTestServer(t, pool)

	seedMenuItem(t, pool, "Masala Chai", "150.00")
	seedMenuItem(t, pool, "Mandazi", "50.00")

	t.Run("menu is public", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/menu?category=breakfast", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var items []model.MenuItem
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		assert.Len(t, items, 2)
	})

	t.Run("order with unknown item is rejected", func(t *testing.T) {
		customer := seedProfile(t, pool, "Njeri", model.RoleCustomer)
		w := do(t, server, http.MethodPost, "/api/orders", &customer, model.OrderRequest{
			OrderType: model.OrderTypeDineIn,
			Items:     []model.OrderItemRequest{{MenuItemID: uuid.New(), Quantity: 1}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
