package aiofetch

import "github.com/pkg/errors"

// Error codes reported through error callbacks. All codes are negative,
// and slot ids are non-negative, so a submission result can be tested by
// sign alone.
const (
	ErrCodePoolFull    = -1
	ErrCodeInvalidURL  = -2
	ErrCodeConnectFail = -3
	ErrCodeTimeout     = -4
	ErrCodeSendFail    = -5
	ErrCodeParseFail   = -6
)

var (
	ErrPoolFull       = errors.New("request pool full")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrConnectFail    = errors.New("connection failed")
	ErrSendFail       = errors.New("send failed")
	ErrParseFail      = errors.New("connection closed during headers")
	ErrTLSUnsupported = errors.New("transport does not support TLS")
)

type timeoutError struct{}

func (e *timeoutError) Error() string {
	return "request timed out"
}

// Only implement the Timeout() function of the net.Error interface.
// This allows for checks like:
//
//   if x, ok := err.(interface{ Timeout() bool }); ok && x.Timeout() {
func (e *timeoutError) Timeout() bool {
	return true
}

// ErrTimeout is reported for requests exceeding their deadline.
var ErrTimeout = &timeoutError{}
