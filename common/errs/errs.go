package errs

import (
	"errors"
	"fmt"
)

type HttpError struct {
	Code    int
	Message string
	Data    any
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("code %d: %s, data: %v", e.Code, e.Message, e.Data)
}

var (
	ErrConfigLoadFailed = errors.New("config load failed")
	ErrAllocationFailed = errors.New("allocation failed")
	ErrUpdateFailed     = errors.New("update failed")
	ErrEmailSendFailed  = errors.New("email send failed")
	ErrAuthFailed       = errors.New("auth failed")

	ErrInvalidStatus        = errors.New("invalid entry status")
	ErrEmailMissing         = errors.New("reservation has no email")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrConfirmationRequired = errors.New("confirmation required")
)

// EmailSendError carries the mail endpoint response. Message is the server
// provided message, or empty when the endpoint gave none.
type EmailSendError struct {
	Status  int
	Message string
	Err     error
}

func (e *EmailSendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("email send failed: %v", e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("email send failed: status %d", e.Status)
	}
	return fmt.Sprintf("email send failed: status %d: %s", e.Status, e.Message)
}

func (e *EmailSendError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrEmailSendFailed, e.Err}
	}
	return []error{ErrEmailSendFailed}
}
