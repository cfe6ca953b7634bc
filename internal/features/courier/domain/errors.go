package domain

// ErrorKind classifies courier failures for the HTTP layer.
type ErrorKind int

const (
	// KindFailed covers client errors and anything unclassified.
	KindFailed ErrorKind = iota
	// KindUnavailable means the courier answered with a 5xx.
	KindUnavailable
	// KindTimeout means the call exceeded its time bound.
	KindTimeout
	// KindRejected means the courier answered but refused the parcel.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// CourierError is the single error type returned by courier adapters.
type CourierError struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Message is safe to show to the operator.
	Message string
	// StatusCode is the upstream HTTP status, when there was one.
	StatusCode int
	// Err is the underlying transport or decode error.
	Err error
}

func (e *CourierError) Error() string {
	return e.Message
}

func (e *CourierError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels below, so errors.Is(err, ErrCourierTimeout) works.
func (e *CourierError) Is(target error) bool {
	t, ok := target.(*CourierError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	// ErrCourierUnavailable matches any CourierError of KindUnavailable.
	ErrCourierUnavailable = &CourierError{Kind: KindUnavailable}
	// ErrCourierTimeout matches any CourierError of KindTimeout.
	ErrCourierTimeout = &CourierError{Kind: KindTimeout}
	// ErrCourierRejected matches any CourierError of KindRejected.
	ErrCourierRejected = &CourierError{Kind: KindRejected}
	// ErrCourierFailed matches any CourierError of KindFailed.
	ErrCourierFailed = &CourierError{Kind: KindFailed}
)
