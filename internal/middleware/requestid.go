package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/xid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxIncomingIDLen bounds ids accepted from clients.
const maxIncomingIDLen = 64

// RequestID tags every request with an id. A client-supplied X-Request-ID
// is kept so ids can be correlated across services; otherwise a new xid
// (20 chars, sortable by time) is generated.
//
// The id is stored under chi's RequestIDKey, so chimiddleware.GetReqID
// reads it the same way it would read chi's own generator.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxIncomingIDLen {
			id = xid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
