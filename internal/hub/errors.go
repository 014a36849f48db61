package hub

import "fmt"

// ValidationError rejects a malformed chat envelope. The message is sent back
// to the sender as an error frame.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a persistence failure. Nothing is broadcast and the
// sender is told to retry.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// TransportError records a failed delivery to one peer during dispatch. It is
// logged and the peer is unregistered; it never reaches the sender.
type TransportError struct {
	Participant string
	Err         error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %s", e.Participant, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
