package api

import (
	"encoding/json"
	"time"
)

// GWPAverageResponse maps each requested line of business to its average.
// Values are decimal strings emitted as bare JSON numbers.
type GWPAverageResponse map[string]json.Number

// HealthResponse mirrors the health endpoints
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}
