package testutil

import (
	"net/http"

	"careflow/pkg/requestcontext"
)

// WithPrincipal attaches an authenticated caller to the request context, the way the
// auth middleware does after validating a token.
func WithPrincipal(req *http.Request, subject, role string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), requestcontext.Principal{Subject: subject, Role: role})
	return req.WithContext(ctx)
}

// WithRequestID attaches a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
