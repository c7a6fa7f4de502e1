package checkers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPChecker(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"no content", http.StatusNoContent, false},
		{"unauthorized still reachable", http.StatusUnauthorized, false},
		{"not found still reachable", http.StatusNotFound, false},
		{"server error", http.StatusInternalServerError, true},
		{"unavailable", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewHTTPChecker("api", srv.URL).Check(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPCheckerOptions(t *testing.T) {
	var gotMethod, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotKey = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	chk := NewHTTPChecker("", srv.URL, WithMethod(http.MethodHead), WithHeader("Authorization", "Bearer k"))
	assert.Equal(t, srv.URL, chk.Name())
	assert.NoError(t, chk.Check(context.Background()))
	assert.Equal(t, http.MethodHead, gotMethod)
	assert.Equal(t, "Bearer k", gotKey)
}

func TestHTTPCheckerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	chk := NewHTTPChecker("gone", url, WithClient(&http.Client{Timeout: time.Second}))
	assert.Error(t, chk.Check(context.Background()))
}
