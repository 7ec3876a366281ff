package api

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Search    string    `json:"search"`
}

type TelemetryResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
