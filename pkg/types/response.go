package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ResultEnvelope is the {success, data | error} shape used by the legal-change admin API.
type ResultEnvelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// CountedList is the {data, count} shape returned by paginated admin lists.
type CountedList struct {
	Data  any   `json:"data"`
	Count int64 `json:"count"`
}
