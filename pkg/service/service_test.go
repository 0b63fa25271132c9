package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, servers map[string]ServerConfig) *Service {
	t.Helper()
	svc, err := New(&Config{Servers: servers, LogLevel: "error"})
	require.NoError(t, err)
	return svc
}

func TestResolveServer(t *testing.T) {
	svc := newTestService(t, map[string]ServerConfig{
		"lab": {URL: "http://localhost:8888/", Token: "tok"},
	})

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"configured name", "lab", "http://localhost:8888", false},
		{"bare http URL passes through", "http://other:9999", "http://other:9999", false},
		{"https URL with trailing slash", "https://hub.example/", "https://hub.example", false},
		{"unknown name", "prod", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveServer(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerNamesSorted(t *testing.T) {
	svc := newTestService(t, map[string]ServerConfig{
		"zeta":  {URL: "http://z"},
		"alpha": {URL: "http://a"},
	})

	assert.Equal(t, []string{"alpha", "zeta"}, svc.ServerNames())
}

func TestTokenFuncMatchesLongestPrefix(t *testing.T) {
	fn := tokenFunc(map[string]ServerConfig{
		"hub":  {URL: "http://example.com/", Token: "hub-token"},
		"user": {URL: "http://example.com/user/me", Token: "user-token"},
	})

	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/api/contents/a", "hub-token"},
		{"http://example.com/user/me/api/contents", "user-token"},
		{"http://unrelated.example/api", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, fn(tt.url), tt.url)
	}
}

func TestNewRejectsBadLogLevel(t *testing.T) {
	_, err := New(&Config{LogLevel: "chatty"})
	require.Error(t, err)
}

func TestNewWithNilConfig(t *testing.T) {
	svc, err := New(nil)
	require.NoError(t, err)
	assert.Empty(t, svc.ServerNames())
}
