package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MessageType classifies an order message.
type MessageType string

const (
	MessageCancellationRequest MessageType = "cancellation_request"
	MessageAdminResponse       MessageType = "admin_response"
	MessageGeneral             MessageType = "general"
	MessageReorderRequest      MessageType = "reorder_request"
	MessageCustomerResponse    MessageType = "customer_response"
	MessageContactInquiry      MessageType = "contact_inquiry"
)

// OrderMessage is a single communication record tied to one order. Contact
// inquiries are the only messages stored without an order or a sender.
// Rows are immutable once written, except for IsRead.
type OrderMessage struct {
	ID                 uuid.UUID           `json:"id" db:"id"`
	OrderID            uuid.UUID           `json:"orderId" db:"order_id"`
	SenderID           uuid.UUID           `json:"senderId" db:"sender_id"`
	RecipientID        uuid.NullUUID       `json:"recipientId" db:"recipient_id"`
	Type               MessageType         `json:"messageType" db:"message_type"`
	Subject            string              `json:"subject" db:"subject"`
	Body               string              `json:"body" db:"body"`
	CancellationReason *string             `json:"cancellationReason,omitempty" db:"cancellation_reason"`
	RefundAmount       decimal.NullDecimal `json:"refundAmount" db:"refund_amount"`
	RefundDetails      *string             `json:"refundDetails,omitempty" db:"refund_details"`
	IsUrgent           bool                `json:"isUrgent" db:"is_urgent"`
	IsRead             bool                `json:"isRead" db:"is_read"`
	ParentMessageID    uuid.NullUUID       `json:"parentMessageId" db:"parent_message_id"`
	CreatedAt          time.Time           `json:"createdAt" db:"created_at"`
}

// MessageView is a message joined with the display data of its order and sender.
type MessageView struct {
	OrderMessage
	OrderNumber int64     `json:"orderNumber"`
	OrderOwner  uuid.UUID `json:"-"`
	SenderName  string    `json:"senderName"`
	SenderRole  Role      `json:"senderRole"`
}

// CancellationReasonCode is one of the fixed reasons offered to customers.
type CancellationReasonCode string

const (
	ReasonChangedMind      CancellationReasonCode = "changed_mind"
	ReasonOrderedByMistake CancellationReasonCode = "ordered_by_mistake"
	ReasonWaitTooLong      CancellationReasonCode = "wait_too_long"
	ReasonFoundAlternative CancellationReasonCode = "found_alternative"
	ReasonPaymentIssue     CancellationReasonCode = "payment_issue"
	ReasonOther            CancellationReasonCode = "other"
)

// CancellationReasons maps each reason code to the text shown to staff.
var CancellationReasons = map[CancellationReasonCode]string{
	ReasonChangedMind:      "Changed my mind",
	ReasonOrderedByMistake: "Ordered by mistake",
	ReasonWaitTooLong:      "Wait time too long",
	ReasonFoundAlternative: "Found an alternative",
	ReasonPaymentIssue:     "Payment issue",
	ReasonOther:            "Other",
}

// CancellationRequest is the customer payload for asking to cancel an order.
type CancellationRequest struct {
	ReasonCode    CancellationReasonCode `json:"reasonCode"`
	OtherReason   string                 `json:"otherReason" validate:"max=500"`
	RefundDetails string                 `json:"refundDetails" validate:"max=500"`
}

// ReorderRequest is the customer payload for asking to repeat an order.
type ReorderRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// ReplyRequest is a free-form message on an order conversation.
type ReplyRequest struct {
	Body            string        `json:"body" validate:"required,max=2000"`
	ParentMessageID uuid.NullUUID `json:"parentMessageId"`
}

// DecisionRequest carries an optional staff note for approve/deny actions.
type DecisionRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

// ContactForm is the public contact page payload.
type ContactForm struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=40"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=4000"`
}

// CancellationResult is returned to the customer after a request is filed.
type CancellationResult struct {
	Message        OrderMessage    `json:"message"`
	RefundAmount   decimal.Decimal `json:"refundAmount"`
	IsPartial      bool            `json:"isPartial"`
	Advisory       string          `json:"advisory"`
	ElapsedMinutes int64           `json:"elapsedMinutes"`
}
