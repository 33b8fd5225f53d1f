package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeMessageNotFound     = "MESSAGE_NOT_FOUND"
	ErrCodeMenuItemNotFound    = "MENU_ITEM_NOT_FOUND"
	ErrCodeMenuItemUnavailable = "MENU_ITEM_UNAVAILABLE"
	ErrCodeReviewNotFound      = "REVIEW_NOT_FOUND"
	ErrCodeReviewExists        = "REVIEW_EXISTS"
	ErrCodeImageNotFound       = "IMAGE_NOT_FOUND"
	ErrCodeProfileNotFound     = "PROFILE_NOT_FOUND"
	ErrCodeNotCancellable      = "ORDER_NOT_CANCELLABLE"
	ErrCodeNotReorderable      = "ORDER_NOT_REORDERABLE"
	ErrCodeNotReviewable       = "ORDER_NOT_REVIEWABLE"
	ErrCodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	ErrCodeNotCancellationReq  = "NOT_A_CANCELLATION_REQUEST"
	ErrCodeDuplicateRequest    = "DUPLICATE_REQUEST"
	ErrCodeRequestResolved     = "CANCELLATION_ALREADY_RESOLVED"
	ErrCodeUnsupportedMedia    = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeUploadTooLarge      = "UPLOAD_TOO_LARGE"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so that errors built with
// NewValidationError still match ErrValidation under errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with a request-specific message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// Common domain errors
var (
	ErrValidation          = NewDomainError(ErrCodeValidation, "Request validation failed")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrMessageNotFound     = NewDomainError(ErrCodeMessageNotFound, "Message not found")
	ErrMenuItemNotFound    = NewDomainError(ErrCodeMenuItemNotFound, "One or more menu items not found")
	ErrMenuItemUnavailable = NewDomainError(ErrCodeMenuItemUnavailable, "One or more menu items are not available")
	ErrReviewNotFound      = NewDomainError(ErrCodeReviewNotFound, "Review not found")
	ErrReviewExists        = NewDomainError(ErrCodeReviewExists, "This order has already been reviewed")
	ErrImageNotFound       = NewDomainError(ErrCodeImageNotFound, "Image not found")
	ErrProfileNotFound     = NewDomainError(ErrCodeProfileNotFound, "Profile not found")
	ErrNotCancellable      = NewDomainError(ErrCodeNotCancellable, "Only pending or confirmed orders can be cancelled")
	ErrNotReorderable      = NewDomainError(ErrCodeNotReorderable, "Only delivered or cancelled orders can be reordered")
	ErrNotReviewable       = NewDomainError(ErrCodeNotReviewable, "Only delivered orders can be reviewed")
	ErrInvalidTransition   = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrNotCancellationReq  = NewDomainError(ErrCodeNotCancellationReq, "Message is not a cancellation request")
	ErrDuplicateRequest    = NewDomainError(ErrCodeDuplicateRequest, "This request has already been submitted")
	ErrRequestResolved     = NewDomainError(ErrCodeRequestResolved, "The order has already been cancelled and refunded")
	ErrUnsupportedMedia    = NewDomainError(ErrCodeUnsupportedMedia, "Only image uploads are accepted")
	ErrUploadTooLarge      = NewDomainError(ErrCodeUploadTooLarge, "Upload exceeds the maximum allowed size")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "You do not have access to this resource")
)
