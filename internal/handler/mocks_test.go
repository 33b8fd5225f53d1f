package handler

import (
	"context"
	"io"
	"net/http"

	"kudos-cafe/internal/conversation"
	"kudos-cafe/internal/middleware"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// withID attaches a chi {id} route parameter to the request.
func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asActor(r *http.Request, actor model.Actor) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), actor))
}

func customer() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleCustomer}
}

func admin() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, actor model.Actor, req *model.OrderRequest) (*model.OrderDetails, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetails), args.Error(1)
}

func (m *MockOrderService) History(ctx context.Context, actor model.Actor, page repository.Page) ([]model.OrderDetails, error) {
	args := m.Called(ctx, actor, page)
	orders, _ := args.Get(0).([]model.OrderDetails)
	return orders, args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.OrderDetails, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetails), args.Error(1)
}

func (m *MockOrderService) AdminList(ctx context.Context, actor model.Actor, status model.OrderStatus, page repository.Page) ([]model.Order, error) {
	args := m.Called(ctx, actor, status, page)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, to model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, actor, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockMessageService is a mock implementation of MessageService.
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) RequestCancellation(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.CancellationRequest, idemKey string) (*model.CancellationResult, error) {
	args := m.Called(ctx, actor, orderID, req, idemKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CancellationResult), args.Error(1)
}

func (m *MockMessageService) RequestReorder(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.ReorderRequest, idemKey string) (*model.OrderMessage, error) {
	args := m.Called(ctx, actor, orderID, req, idemKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderMessage), args.Error(1)
}

func (m *MockMessageService) ApproveRefund(ctx context.Context, actor model.Actor, requestID uuid.UUID, req *model.DecisionRequest) (*model.OrderMessage, error) {
	args := m.Called(ctx, actor, requestID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderMessage), args.Error(1)
}

func (m *MockMessageService) DenyCancellation(ctx context.Context, actor model.Actor, requestID uuid.UUID, req *model.DecisionRequest) (*model.OrderMessage, error) {
	args := m.Called(ctx, actor, requestID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderMessage), args.Error(1)
}

func (m *MockMessageService) Reply(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.ReplyRequest, idemKey string) (*model.OrderMessage, error) {
	args := m.Called(ctx, actor, orderID, req, idemKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderMessage), args.Error(1)
}

func (m *MockMessageService) MarkRead(ctx context.Context, actor model.Actor, messageID uuid.UUID) error {
	return m.Called(ctx, actor, messageID).Error(0)
}

func (m *MockMessageService) ListThreads(ctx context.Context, actor model.Actor) ([]conversation.Thread, error) {
	args := m.Called(ctx, actor)
	threads, _ := args.Get(0).([]conversation.Thread)
	return threads, args.Error(1)
}

func (m *MockMessageService) SubmitContactInquiry(ctx context.Context, form *model.ContactForm) (*model.OrderMessage, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderMessage), args.Error(1)
}

func (m *MockMessageService) ListContactInquiries(ctx context.Context, actor model.Actor, page repository.Page) ([]model.OrderMessage, error) {
	args := m.Called(ctx, actor, page)
	msgs, _ := args.Get(0).([]model.OrderMessage)
	return msgs, args.Error(1)
}

func (m *MockMessageService) Snapshot(ctx context.Context, actor model.Actor) ([]model.MessageView, error) {
	args := m.Called(ctx, actor)
	views, _ := args.Get(0).([]model.MessageView)
	return views, args.Error(1)
}

// MockMenuService is a mock implementation of MenuService.
type MockMenuService struct {
	mock.Mock
}

func (m *MockMenuService) ListPublic(ctx context.Context, category string) ([]model.MenuItem, error) {
	args := m.Called(ctx, category)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

func (m *MockMenuService) ListAll(ctx context.Context, actor model.Actor) ([]model.MenuItem, error) {
	args := m.Called(ctx, actor)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

func (m *MockMenuService) Create(ctx context.Context, actor model.Actor, req *model.MenuItemRequest) (*model.MenuItem, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MenuItem), args.Error(1)
}

func (m *MockMenuService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.MenuItemRequest) (*model.MenuItem, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MenuItem), args.Error(1)
}

func (m *MockMenuService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockMenuService) AdjustStock(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.StockAdjustment) (int, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Int(0), args.Error(1)
}

func (m *MockMenuService) ExportInventory(ctx context.Context, actor model.Actor, w io.Writer) error {
	return m.Called(ctx, actor, w).Error(0)
}

// MockReviewService is a mock implementation of ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Submit(ctx context.Context, actor model.Actor, req *model.ReviewRequest) (*model.Review, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewService) ListApproved(ctx context.Context, page repository.Page) ([]model.Review, error) {
	args := m.Called(ctx, page)
	reviews, _ := args.Get(0).([]model.Review)
	return reviews, args.Error(1)
}

func (m *MockReviewService) ListAll(ctx context.Context, actor model.Actor, page repository.Page) ([]model.Review, error) {
	args := m.Called(ctx, actor, page)
	reviews, _ := args.Get(0).([]model.Review)
	return reviews, args.Error(1)
}

func (m *MockReviewService) Approve(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockReviewService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockGalleryService is a mock implementation of GalleryService.
type MockGalleryService struct {
	mock.Mock
}

func (m *MockGalleryService) Upload(ctx context.Context, actor model.Actor, title, contentType string, r io.Reader) (*model.GalleryImage, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, actor, title, contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GalleryImage), args.Error(1)
}

func (m *MockGalleryService) List(ctx context.Context, page repository.Page) ([]model.GalleryImage, error) {
	args := m.Called(ctx, page)
	images, _ := args.Get(0).([]model.GalleryImage)
	return images, args.Error(1)
}

func (m *MockGalleryService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockGalleryService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

// MockAdminService is a mock implementation of AdminService.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListUsers(ctx context.Context, actor model.Actor, page repository.Page) ([]model.Profile, error) {
	args := m.Called(ctx, actor, page)
	profiles, _ := args.Get(0).([]model.Profile)
	return profiles, args.Error(1)
}

func (m *MockAdminService) UpdateRole(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.RoleUpdateRequest) (*model.Profile, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockAdminService) Analytics(ctx context.Context, actor model.Actor) (*model.AnalyticsSummary, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalyticsSummary), args.Error(1)
}
