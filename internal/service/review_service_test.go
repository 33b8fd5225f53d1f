package service

import (
	"context"
	"errors"
	"testing"

	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReviewService_Submit(t *testing.T) {
	ctx := context.Background()
	owner := customer()

	tests := []struct {
		name        string
		actor       model.Actor
		order       *model.Order
		rating      int
		createErr   error
		expectedErr error
	}{
		{
			name:   "Delivered order",
			actor:  owner,
			order:  testOrder(owner.ID, model.StatusDelivered, testNow),
			rating: 5,
		},
		{
			name:        "Order not delivered",
			actor:       owner,
			order:       testOrder(owner.ID, model.StatusReady, testNow),
			rating:      4,
			expectedErr: model.ErrNotReviewable,
		},
		{
			name:        "Someone else's order",
			actor:       customer(),
			order:       testOrder(owner.ID, model.StatusDelivered, testNow),
			rating:      4,
			expectedErr: model.ErrForbidden,
		},
		{
			name:        "Order not found",
			actor:       owner,
			rating:      4,
			expectedErr: model.ErrOrderNotFound,
		},
		{
			name:        "Already reviewed",
			actor:       owner,
			order:       testOrder(owner.ID, model.StatusDelivered, testNow),
			rating:      3,
			createErr:   model.ErrReviewExists,
			expectedErr: model.ErrReviewExists,
		},
		{
			name:        "Rating out of range",
			actor:       owner,
			order:       testOrder(owner.ID, model.StatusDelivered, testNow),
			rating:      6,
			expectedErr: model.ErrValidation,
		},
		{
			name:        "Anonymous",
			actor:       model.Actor{},
			order:       testOrder(owner.ID, model.StatusDelivered, testNow),
			rating:      5,
			expectedErr: model.ErrUnauthorised,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReviewRepo := new(MockReviewRepository)
			mockOrderRepo := new(MockOrderRepository)
			service := NewReviewService(mockReviewRepo, mockOrderRepo, nil, zerolog.Nop())

			orderID := uuid.New()
			if tt.order != nil {
				orderID = tt.order.ID
				mockOrderRepo.On("GetByID", ctx, orderID).Return(tt.order, nil, nil)
			} else {
				mockOrderRepo.On("GetByID", ctx, orderID).Return(nil, nil, nil)
			}
			mockReviewRepo.On("Create", ctx, mock.AnythingOfType("*model.Review")).Return(tt.createErr)

			review, err := service.Submit(ctx, tt.actor, &model.ReviewRequest{
				OrderID: orderID,
				Rating:  tt.rating,
				Comment: "  Best chai in town  ",
			})

			if tt.expectedErr != nil {
				assert.True(t, errors.Is(err, tt.expectedErr), "got %v", err)
				assert.Nil(t, review)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Best chai in town", review.Comment)
			assert.Equal(t, tt.actor.ID, review.UserID)
			assert.False(t, review.Approved)
		})
	}
}

func TestReviewService_ListApproved(t *testing.T) {
	ctx := context.Background()
	mockReviewRepo := new(MockReviewRepository)
	service := NewReviewService(mockReviewRepo, new(MockOrderRepository), nil, zerolog.Nop())
	page := repository.Page{Limit: 20}

	mockReviewRepo.On("List", ctx, true, page).Return([]model.Review{{ID: uuid.New(), Approved: true}}, nil)

	reviews, err := service.ListApproved(ctx, page)

	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	mockReviewRepo.AssertExpectations(t)
}

func TestReviewService_Moderation(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Approve invalidates analytics", func(t *testing.T) {
		mockReviewRepo := new(MockReviewRepository)
		mockAnalytics := new(MockAnalyticsCache)
		service := NewReviewService(mockReviewRepo, new(MockOrderRepository), mockAnalytics, zerolog.Nop())

		mockReviewRepo.On("Approve", ctx, id).Return(nil)
		mockAnalytics.On("Invalidate", ctx).Return(nil)

		require.NoError(t, service.Approve(ctx, admin(), id))
		mockAnalytics.AssertExpectations(t)
	})

	t.Run("Delete missing review", func(t *testing.T) {
		mockReviewRepo := new(MockReviewRepository)
		mockAnalytics := new(MockAnalyticsCache)
		service := NewReviewService(mockReviewRepo, new(MockOrderRepository), mockAnalytics, zerolog.Nop())

		mockReviewRepo.On("Delete", ctx, id).Return(model.ErrReviewNotFound)

		err := service.Delete(ctx, admin(), id)

		assert.Equal(t, model.ErrReviewNotFound, err)
		mockAnalytics.AssertNotCalled(t, "Invalidate", mock.Anything)
	})

	t.Run("Customers cannot moderate", func(t *testing.T) {
		mockReviewRepo := new(MockReviewRepository)
		service := NewReviewService(mockReviewRepo, new(MockOrderRepository), nil, zerolog.Nop())

		assert.Equal(t, model.ErrForbidden, service.Approve(ctx, customer(), id))
		_, err := service.ListAll(ctx, customer(), repository.Page{})
		assert.Equal(t, model.ErrForbidden, err)
		mockReviewRepo.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything)
	})
}
