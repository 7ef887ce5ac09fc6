// Package types holds the JSON envelope shapes shared by every API response.
package types

// SuccessEnvelope wraps successful payloads as {"data": ...} so clients can
// branch on the top-level key alone.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Details is populated only for codes
// that opt in, e.g. the checkout URL carried by subscription_required.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps failures as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
