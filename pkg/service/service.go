// Package service wires the transport, protocol detection, contents, and
// hierarchy layers into the facade the CLI talks to.
package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/nbremote/pkg/apiversion"
	"github.com/grovetools/nbremote/pkg/contents"
	"github.com/grovetools/nbremote/pkg/hierarchy"
	"github.com/grovetools/nbremote/pkg/models"
	"github.com/grovetools/nbremote/pkg/transport"
)

// ServerConfig describes one configured notebook server.
type ServerConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Token string `mapstructure:"token" yaml:"token,omitempty"`
}

// Config holds service configuration.
type Config struct {
	Servers  map[string]ServerConfig
	Timeout  time.Duration
	LogLevel string
}

// Service is the core remote-contents service.
type Service struct {
	Contents *contents.Service
	Cache    *hierarchy.Cache

	refresher *hierarchy.Refresher
	servers   map[string]ServerConfig
	log       *logrus.Logger
}

// New creates a Service from config.
func New(config *Config) (*Service, error) {
	if config == nil {
		config = &Config{}
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if config.LogLevel != "" {
		level, err := logrus.ParseLevel(config.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		logger.SetLevel(level)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	servers := config.Servers
	if servers == nil {
		servers = map[string]ServerConfig{}
	}

	client := transport.New(&http.Client{Timeout: timeout}, logger)
	client.SetTokenFunc(tokenFunc(servers))

	versions := apiversion.New(client, logger)
	contentsSvc := contents.New(client, versions, logger)
	cache := hierarchy.NewCache()
	builder := hierarchy.NewBuilder(contentsSvc, logger)

	return &Service{
		Contents:  contentsSvc,
		Cache:     cache,
		refresher: hierarchy.NewRefresher(builder, cache),
		servers:   servers,
		log:       logger,
	}, nil
}

// tokenFunc resolves the auth token for a request by longest matching
// configured server URL.
func tokenFunc(servers map[string]ServerConfig) transport.TokenFunc {
	return func(rawurl string) string {
		best := ""
		token := ""
		for _, sc := range servers {
			base := strings.TrimRight(sc.URL, "/")
			if base != "" && strings.HasPrefix(rawurl, base) && len(base) > len(best) {
				best = base
				token = sc.Token
			}
		}
		return token
	}
}

// ResolveServer maps a configured server name to its base URL. Anything that
// already looks like a URL passes through, so ad-hoc servers work without
// config.
func (s *Service) ResolveServer(name string) (string, error) {
	if sc, ok := s.servers[name]; ok {
		return strings.TrimRight(sc.URL, "/"), nil
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return strings.TrimRight(name, "/"), nil
	}
	return "", fmt.Errorf("unknown server %q (not configured and not a URL)", name)
}

// ServerNames returns the configured server names, sorted.
func (s *Service) ServerNames() []string {
	names := make([]string, 0, len(s.servers))
	for name := range s.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Server returns the config for a named server.
func (s *Service) Server(name string) (ServerConfig, bool) {
	sc, ok := s.servers[name]
	return sc, ok
}

// Get fetches a single record, blocking until it resolves. An unpopulated
// result means the fetch failed; details are on the log.
func (s *Service) Get(ctx context.Context, server, path string) *models.ContentRecord {
	return s.Contents.QuerySync(ctx, server, path)
}

// Refresh rebuilds the hierarchy rooted at path (the empty path means the
// server root) and installs it into the cache, replacing any prior entry.
func (s *Service) Refresh(ctx context.Context, server, path string) ([]*models.ContentRecord, *hierarchy.Report) {
	return s.refresher.Refresh(ctx, server, path)
}

// Rename fetches the record at path and moves it to newPath. The returned
// record carries the post-rename identity.
func (s *Service) Rename(ctx context.Context, server, path, newPath string) (*models.ContentRecord, error) {
	rec := s.Contents.QuerySync(ctx, server, path)
	if !rec.Populated() {
		return nil, fmt.Errorf("fetch %q before rename: record did not resolve", path)
	}
	if err := s.Contents.Rename(ctx, rec, newPath); err != nil {
		return nil, err
	}
	return rec, nil
}
