package voucher

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies a business failure so callers can map it to a response
// without parsing the message.
type Kind string

// Failure kinds returned by the voucher service.
const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindIneligible Kind = "ineligible"
	KindConflict   Kind = "conflict"
)

// Error is an expected business outcome carrying a machine-distinguishable
// kind and a human-readable reason. Store failures are returned as plain
// errors and are never wrapped into this type.
type Error struct {
	Kind   Kind   // Failure classification.
	Reason string // User-facing reason.
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Reason }

// Rejections with fixed reasons.
var (
	// ErrNotFound indicates the voucher or code does not exist.
	ErrNotFound = &Error{Kind: KindNotFound, Reason: "voucher not found"}
	// ErrCodeTaken indicates a create or update collides with an existing code.
	ErrCodeTaken = &Error{Kind: KindConflict, Reason: "voucher code already exists"}
	// ErrUnavailable indicates the voucher is administratively disabled.
	ErrUnavailable = &Error{Kind: KindIneligible, Reason: "voucher unavailable"}
	// ErrNotActivated indicates the voucher is still a draft.
	ErrNotActivated = &Error{Kind: KindIneligible, Reason: "voucher not yet activated"}
	// ErrNotStarted indicates the validity window has not opened yet.
	ErrNotStarted = &Error{Kind: KindIneligible, Reason: "voucher not yet started"}
	// ErrExpired indicates the window closed or the usage limit is exhausted.
	ErrExpired = &Error{Kind: KindIneligible, Reason: "voucher expired or usage exhausted"}
	// ErrPerUserLimit indicates the caller already hit the per-user cap.
	ErrPerUserLimit = &Error{Kind: KindIneligible, Reason: "per-user redemption limit reached"}
	// ErrNoBenefit indicates the configured discount yields nothing here.
	ErrNoBenefit = &Error{Kind: KindIneligible, Reason: "voucher gives no benefit at this subtotal"}
)

// errMinOrder builds the minimum-order rejection including the missing amount.
func errMinOrder(missing decimal.Decimal) *Error {
	return &Error{
		Kind:   KindIneligible,
		Reason: fmt.Sprintf("minimum order value not met, add %s more", missing.String()),
	}
}

// errValidation builds a validation rejection.
func errValidation(reason string) *Error {
	return &Error{Kind: KindValidation, Reason: reason}
}

// KindOf returns the failure kind of err, or an empty kind for store errors.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not-found business failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is a validation business failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsIneligible reports whether err is an eligibility rejection.
func IsIneligible(err error) bool { return KindOf(err) == KindIneligible }

// IsConflict reports whether err is a conflict business failure.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }
