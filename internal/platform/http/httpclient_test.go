package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(3 * time.Second)

	assert.Equal(t, 3*time.Second, c.Timeout)
	require.IsType(t, &userAgentTransport{}, c.Transport)
}

func TestNewHTTPClient_UserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "default user agent is added", header: "", want: DefaultUserAgent},
		{name: "explicit user agent is kept", header: "custom/2.0", want: "custom/2.0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("User-Agent")
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			req, err := http.NewRequest(http.MethodGet, server.URL, nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("User-Agent", tt.header)
			}

			res, err := NewHTTPClient(time.Second).Do(req)
			require.NoError(t, err)
			_ = res.Body.Close()

			assert.Equal(t, tt.want, got)
			if tt.header == "" {
				assert.Empty(t, req.Header.Get("User-Agent"), "caller request must not be mutated")
			}
		})
	}
}
