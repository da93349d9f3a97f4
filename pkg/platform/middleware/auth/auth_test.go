package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careflow/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

type countingRecorder map[string]int

func (c countingRecorder) IncAuthFailure(reason string) { c[reason]++ }

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := requestcontext.PrincipalFrom(r.Context())
		_, _ = w.Write([]byte(p.Subject + "/" + p.Role))
	})
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		validator  stubValidator
		wantStatus int
		wantBody   string
		wantReason string
	}{
		{
			name:       "valid token sets principal",
			header:     "Bearer good",
			validator:  stubValidator{claims: &JWTClaims{Subject: "dr.ade", Role: RoleClinician}},
			wantStatus: http.StatusOK,
			wantBody:   "dr.ade/clinician",
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantReason: "missing_token",
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
			wantReason: "missing_token",
		},
		{
			name:       "invalid token",
			header:     "Bearer bad",
			validator:  stubValidator{err: errors.New("signature mismatch")},
			wantStatus: http.StatusUnauthorized,
			wantReason: "invalid_token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := countingRecorder{}
			h := RequireAuth(tt.validator, failures, logger)(principalEcho())
			req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			if tt.wantReason != "" {
				assert.Equal(t, 1, failures[tt.wantReason])
				assert.Contains(t, w.Body.String(), `"error":"unauthorized"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	guard := RequireRole(nil, logger, RoleAdmin, RoleOps)(principalEcho())

	t.Run("permitted role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/events/process", nil)
		req = req.WithContext(requestcontext.WithPrincipal(req.Context(), requestcontext.Principal{Subject: "ops-bot", Role: RoleOps}))
		w := httptest.NewRecorder()
		guard.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/events/process", nil)
		req = req.WithContext(requestcontext.WithPrincipal(req.Context(), requestcontext.Principal{Subject: "dr.ade", Role: RoleClinician}))
		w := httptest.NewRecorder()
		guard.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no principal", func(t *testing.T) {
		w := httptest.NewRecorder()
		guard.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/events/process", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
