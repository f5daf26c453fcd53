// Package http implements the HTTP handlers of the lobstats service. Handlers
// stay thin: they decode the request, call a service and render the result.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → StatsService → lobstats
//	                                              ↓
//	HTTP Response ← Handler ← averages / error ←─┘
//
// # Error Handling
//
// Domain errors are converted by MapDomainError and rendered by the shared
// ErrorHandler as RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "duplicate line of business",
//	    "instance": "/server/api/gwp/avg",
//	    "error_code": "DUPLICATE_LOB",
//	    "trace_id": "..."
//	}
//
// # Testing
//
// Handlers are tested with httptest against mocked service interfaces.
package http
