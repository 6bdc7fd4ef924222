package http_test

import (
	"testing"

	mastohttp "github.com/fivetwenty-io/masto-client/internal/http"
	"github.com/stretchr/testify/assert"
)

func TestParseLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  []string
		next     string
		previous string
	}{
		{
			name:    "no header",
			headers: nil,
		},
		{
			name:     "both directions",
			headers:  []string{`<https://m.example/api/v1/notifications?max_id=5>; rel="next", <https://m.example/api/v1/notifications?min_id=9>; rel="prev"`},
			next:     "https://m.example/api/v1/notifications?max_id=5",
			previous: "https://m.example/api/v1/notifications?min_id=9",
		},
		{
			name:    "next only",
			headers: []string{`<https://m.example/api/v1/notifications/requests?max_id=2>; rel="next"`},
			next:    "https://m.example/api/v1/notifications/requests?max_id=2",
		},
		{
			name:     "previous spelled out",
			headers:  []string{`<https://m.example/p>; rel="previous"`},
			previous: "https://m.example/p",
		},
		{
			name:     "split across header values",
			headers:  []string{`<https://m.example/n>; rel="next"`, `<https://m.example/p>; rel="prev"`},
			next:     "https://m.example/n",
			previous: "https://m.example/p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			links := mastohttp.ParseLinks(tt.headers)
			assert.Equal(t, tt.next, links.Next)
			assert.Equal(t, tt.previous, links.Previous)
		})
	}
}
