package utils

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates malformed request data
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTimeRange indicates due time not after creation time
	ErrInvalidTimeRange = errors.New("invalid time range")
	// ErrConflict indicates double booking or a lost concurrent update
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates missing booking or user
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor can not do the operation
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState indicates the booking status does not allow the operation
	ErrInvalidState = errors.New("invalid state")
)

// UserError carries a message that can be shown to a user
type UserError struct {
	Msg string
	err error
}

// NewUserError creates new error, kind must be one of the taxonomy errors
func NewUserError(kind error, msg string) error {
	return &UserError{Msg: msg, err: kind}
}

// NewUserErrorf creates new error with formatted message
func NewUserErrorf(kind error, format string, a ...interface{}) error {
	return &UserError{Msg: fmt.Sprintf(format, a...), err: kind}
}

func (e *UserError) Error() string {
	return e.err.Error() + ": " + e.Msg
}

func (e *UserError) Unwrap() error {
	return e.err
}

// UserMessage returns user facing message if err is UserError
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Msg
	}
	return ""
}

// DeliveryError indicates mail, push or sms send failure
type DeliveryError struct {
	Channel    string
	JobID      int64
	Recipients []string
	err        error
}

// NewDeliveryError creates new error
func NewDeliveryError(channel string, jobID int64, recipients []string, err error) error {
	return &DeliveryError{Channel: channel, JobID: jobID, Recipients: recipients, err: err}
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed (job %d, %d recipients): %v", e.Channel, e.JobID, len(e.Recipients), e.err)
}

func (e *DeliveryError) Unwrap() error {
	return e.err
}
