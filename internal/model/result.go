package model

// Result is the structured outcome returned by every core operation. Core
// code never lets an internal error escape past its boundary; failures are
// carried here and surfaced by the UI layer.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK builds a successful result.
func OK(message string) Result {
	return Result{Success: true, Message: message}
}

// Fail builds a failed result.
func Fail(message string) Result {
	return Result{Success: false, Message: message}
}
