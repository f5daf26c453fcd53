// Package api contains the HTTP contract of the lobstats service.
// Version v1 represents the current stable API version.
package api

import (
	"net/http"
)

// GWPAverageRequest is the body of POST /server/api/gwp/avg
type GWPAverageRequest struct {
	Country string   `json:"country"`
	Lob     []string `json:"lob"`
}

// Bind implements render.Binder. Values are passed on verbatim so response
// keys match the request; the domain validator decides what is acceptable.
func (req *GWPAverageRequest) Bind(r *http.Request) error {
	return nil
}
