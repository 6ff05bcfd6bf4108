package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/nbatrivia/internal/handlers"
	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]handlers.HealthChecker
		wantStatus int
		want       map[string]any
	}{
		{
			name:       "all up",
			checks:     map[string]handlers.HealthChecker{"database": &handlers.MockHealthChecker{}},
			wantStatus: http.StatusOK,
			want:       map[string]any{"status": "healthy", "database": "up"},
		},
		{
			name: "cache down",
			checks: map[string]handlers.HealthChecker{
				"database": &handlers.MockHealthChecker{},
				"cache":    &handlers.MockHealthChecker{Err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]any{"status": "unhealthy", "database": "up", "cache": "down"},
		},
		{
			name:       "nil checker skipped",
			checks:     map[string]handlers.HealthChecker{"database": &handlers.MockHealthChecker{}, "cache": nil},
			wantStatus: http.StatusOK,
			want:       map[string]any{"status": "healthy", "database": "up"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.NewHealthHandler(tt.checks).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.want, handlers.DecodeBody(t, w))
		})
	}
}
