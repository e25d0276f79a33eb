package publisher

import "errors"

var (
	// ErrValidation indicates the publisher configuration is invalid.
	ErrValidation = &kindError{
		kind:    "validation_error",
		message: "validation error",
	}

	// ErrSetup indicates the transport could not be opened.
	ErrSetup = &kindError{
		kind:    "setup_error",
		message: "publisher setup failed",
	}

	// ErrNotOpen indicates Publish was called after Close.
	ErrNotOpen = &kindError{
		kind:    "not_open",
		message: "publisher not open",
	}

	// ErrBroker indicates the broker rejected the message.
	ErrBroker = &kindError{
		kind:    "broker_error",
		message: "broker error",
	}

	// ErrTimeout indicates the bounded publish wait expired.
	ErrTimeout = &kindError{
		kind:    "timeout",
		message: "timeout",
	}
)

// kindError classifies publish errors for metrics labels. The pacing loop
// never branches on it.
type kindError struct {
	kind    string
	message string
}

func (e *kindError) Error() string {
	return e.message
}

func (e *kindError) Kind() string {
	return e.kind
}

func (e *kindError) Is(target error) bool {
	if t, ok := target.(*kindError); ok {
		return e.kind == t.kind
	}
	return false
}

// Kind walks the error chain and returns the classification label, or
// "unknown" for unclassified errors.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var ke *kindError
	if errors.As(err, &ke) {
		return ke.Kind()
	}

	return "unknown"
}

// classify wraps a transport error, mapping context expiry onto ErrTimeout.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrBroker) || errors.Is(err, ErrNotOpen) {
		return err
	}
	if isTimeout(err) {
		return errors.Join(ErrTimeout, err)
	}
	return errors.Join(ErrBroker, err)
}
