package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "careflow/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: connection refused"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		if strings.Contains(w.Body.String(), "pq") {
			t.Fatalf("expected storage detail to be hidden, got %s", w.Body.String())
		}
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:        http.StatusBadRequest,
		dErrors.CodeConflict:          http.StatusConflict,
		dErrors.CodeInvalidState:      http.StatusUnprocessableEntity,
		dErrors.CodeInvalidTransition: http.StatusUnprocessableEntity,
		dErrors.CodeNotFound:          http.StatusNotFound,
		dErrors.CodeForbidden:         http.StatusForbidden,
		dErrors.CodeUnavailable:       http.StatusServiceUnavailable,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Limit int `json:"limit"`
	}

	t.Run("decodes", func(t *testing.T) {
		var b body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"limit":7}`))
		if err := DecodeJSON(r, &b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Limit != 7 {
			t.Fatalf("expected limit 7, got %d", b.Limit)
		}
	})

	t.Run("empty body keeps defaults", func(t *testing.T) {
		b := body{Limit: 25}
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		if err := DecodeJSON(r, &b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Limit != 25 {
			t.Fatalf("expected default limit to survive, got %d", b.Limit)
		}
	})

	t.Run("unknown field is a bad request", func(t *testing.T) {
		var b body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"limt":7}`))
		err := DecodeJSON(r, &b)
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad_request, got %v", err)
		}
	})
}
