package api

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Listeners int    `json:"listeners"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
