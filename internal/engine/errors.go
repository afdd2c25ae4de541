package engine

import (
	"errors"
	"fmt"
)

// Error is a rejected engine operation.
//
// Every rejection leaves the store unchanged. Code is stable and suitable for
// programmatic handling; Message is human-readable.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any (custodian or gate failures).
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInvalidAmount indicates a non-positive or over-precise deposit.
	ErrCodeInvalidAmount ErrorCode = "INVALID_AMOUNT"

	// ErrCodeInvalidDuration indicates a duration outside 1..max days.
	ErrCodeInvalidDuration ErrorCode = "INVALID_DURATION"

	// ErrCodeInvalidWakeUpTime indicates a wake-up time outside 0..86399.
	ErrCodeInvalidWakeUpTime ErrorCode = "INVALID_WAKE_UP_TIME"

	// ErrCodeIncorrectDeposit indicates attached value does not match the
	// required deposit exactly.
	ErrCodeIncorrectDeposit ErrorCode = "INCORRECT_DEPOSIT"

	// ErrCodeTooFewParticipants indicates a social challenge with fewer than
	// two participants.
	ErrCodeTooFewParticipants ErrorCode = "TOO_FEW_PARTICIPANTS"

	// ErrCodeInvalidParticipants indicates an empty or repeated participant.
	ErrCodeInvalidParticipants ErrorCode = "INVALID_PARTICIPANTS"

	// ErrCodeInvalidIdentity indicates an empty identity where one is required.
	ErrCodeInvalidIdentity ErrorCode = "INVALID_IDENTITY"

	// ErrCodeNotFound indicates no challenge with the given id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeUnauthorized indicates the caller may not perform the operation.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeNotActive indicates the challenge is settled or its window
	// has closed.
	ErrCodeNotActive ErrorCode = "NOT_ACTIVE"

	// ErrCodeNotParticipant indicates the named participant is not a member.
	ErrCodeNotParticipant ErrorCode = "NOT_PARTICIPANT"

	// ErrCodeDuplicateConfirmation indicates today is already confirmed.
	ErrCodeDuplicateConfirmation ErrorCode = "DUPLICATE_CONFIRMATION"

	// ErrCodeTooEarly indicates settlement before the end time.
	ErrCodeTooEarly ErrorCode = "TOO_EARLY"

	// ErrCodeMissedDeadline indicates a confirmation after today's wake-up
	// deadline (only when deadline enforcement is on).
	ErrCodeMissedDeadline ErrorCode = "MISSED_DEADLINE"

	// ErrCodeTransferFailed indicates the custodian rejected a settlement
	// transfer. The settlement was rolled back and may be retried.
	ErrCodeTransferFailed ErrorCode = "TRANSFER_FAILED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of an *Error, or "" for any other error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFound(kind string, id int64) *Error {
	return newError(ErrCodeNotFound, "%s %d not found", kind, id)
}

func transferFailed(cause error) *Error {
	return &Error{Code: ErrCodeTransferFailed, Message: "Transfer failed", Err: cause}
}
