package chat

import "errors"

// Sentinel errors for the chat core. Handlers map these onto HTTP status
// classes: validation 400, access 403, not-found 404, store 500.
var (
	ErrValidation   = errors.New("validation failed")
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrStore        = errors.New("store error")
)
