package quatt

import "errors"

var (
	// ErrCommunication covers timeouts, connection failures and unexpected responses.
	ErrCommunication = errors.New("quatt: communication error")
	// ErrAuthentication is returned for 401/403 responses that could not be recovered.
	ErrAuthentication = errors.New("quatt: authentication error")
)
