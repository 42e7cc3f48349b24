package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type Metadata map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a Metadata) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *Metadata) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_ACCEPTED  BookingStatus = "accepted"
	BOOKING_REJECTED  BookingStatus = "rejected"
	BOOKING_CANCELED  BookingStatus = "cancelled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

// Terminal reports whether no further status transitions are allowed.
// Settlement and refund side-fields remain writable on terminal bookings.
func (s BookingStatus) Terminal() bool {
	return s == BOOKING_COMPLETED || s == BOOKING_CANCELED || s == BOOKING_REJECTED
}

type PaymentStatus string

const (
	PAYMENT_UNPAID        PaymentStatus = "unpaid"
	PAYMENT_PAID          PaymentStatus = "paid"
	PAYMENT_REFUNDED      PaymentStatus = "refunded"
	PAYMENT_REFUND_FAILED PaymentStatus = "refund_failed"
	PAYMENT_CANCELED      PaymentStatus = "cancelled"
)

type TransactionStatus string

const (
	TRANSACTION_PAID        TransactionStatus = "paid"
	TRANSACTION_TRANSFERRED TransactionStatus = "transferred"
	TRANSACTION_FAILED      TransactionStatus = "failed"
	TRANSACTION_REFUNDED    TransactionStatus = "refunded"
)

type TransferStatus string

const (
	TRANSFER_PENDING   TransferStatus = "pending"
	TRANSFER_COMPLETED TransferStatus = "completed"
	TRANSFER_FAILED    TransferStatus = "failed"
)

// Machine-readable codes surfaced to callers so they can branch without
// inspecting message strings.
const (
	CODE_VALIDATION        = "VALIDATION_ERROR"
	CODE_NOT_FOUND         = "NOT_FOUND"
	CODE_UNAUTHORIZED      = "UNAUTHORIZED"
	CODE_NO_PAYOUT_ACCOUNT = "NO_PAYOUT_ACCOUNT"
	CODE_ACCOUNT_NOT_READY = "ACCOUNT_NOT_READY"
	CODE_ALREADY_SETTLED   = "ALREADY_TRANSFERRED"
	CODE_CONSISTENCY       = "CONSISTENCY_ERROR"
	CODE_TRANSFER_ERROR    = "TRANSFER_ERROR"
	CODE_REFUND_ERROR      = "REFUND_ERROR"
)

// TransferResult is the settlement engine's only currency with callers: every
// exit path is success+refs, a retryable failure, or a permanent failure.
type TransferResult struct {
	Success            bool    `json:"success"`
	TransferID         string  `json:"transfer_id,omitempty"`
	Amount             float64 `json:"amount,omitempty"`
	PlatformFee        float64 `json:"platform_fee,omitempty"`
	Code               string  `json:"code,omitempty"`
	Error              string  `json:"error,omitempty"`
	Retryable          bool    `json:"retryable,omitempty"`
	OnboardingRequired bool    `json:"onboarding_required,omitempty"`
}

type CancelResult struct {
	Success       bool          `json:"success"`
	AlreadyDone   bool          `json:"already_cancelled,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	RefundID      string        `json:"refund_id,omitempty"`
	RefundError   string        `json:"refund_error,omitempty"`
}

type BusySlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateBookingRequestBody struct {
	ConsultantID uint    `json:"consultantId" binding:"required"`
	ServiceID    uint    `json:"serviceId" binding:"required"`
	Date         string  `json:"date" binding:"required,bookabledate"`
	Time         string  `json:"time" binding:"required"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	Quantity     uint    `json:"quantity,omitempty"`
}

type UpdateBookingStatusRequestBody struct {
	Status        string `json:"status" binding:"required"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

type CancelBookingRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

type CreatePaymentIntentRequestBody struct {
	BookingID uint `json:"bookingId" binding:"required"`
}

type UpdatePlatformFeeRequestBody struct {
	FeeAmount *float64 `json:"feeAmount" binding:"required,gte=0"`
}
