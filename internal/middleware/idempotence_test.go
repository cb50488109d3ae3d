package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShouldSkipIdempotence(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{"subscribe", http.MethodPost, "/subscribe", true},
		{"subscribe versioned", http.MethodPost, "/api/v1/subscribe", true},
		{"subscribe trailing slash", http.MethodPost, "/subscribe/", true},
		{"subscribe mixed case", http.MethodPost, "/Subscribe", true},
		{"verify", http.MethodPost, "/verify", false},
		{"confirm-unsubscribe", http.MethodPost, "/confirm-unsubscribe", false},
		{"send-newsletter", http.MethodPost, "/send-newsletter", false},
		{"delete unsubscribe", http.MethodDelete, "/subscribe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, shouldSkipIdempotence(tt.method, tt.path))
		})
	}
}
