// Package apiversion detects which protocol generation a notebook server
// speaks.
package apiversion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-semver/semver"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/nbremote/pkg/transport"
)

// LegacyMajor is the protocol generation that predates the uniform contents
// API. Servers reporting it are queried through the notebooks endpoint.
const LegacyMajor int64 = 2

// Detector resolves and caches the protocol major version per server.
type Detector struct {
	client *transport.Client
	cache  *gocache.Cache
	log    *logrus.Logger
}

// New creates a Detector. Results are cached for the life of the process; a
// server does not change protocol generation while we talk to it.
func New(client *transport.Client, log *logrus.Logger) *Detector {
	if log == nil {
		log = logrus.New()
	}
	return &Detector{
		client: client,
		cache:  gocache.New(gocache.NoExpiration, 0),
		log:    log,
	}
}

// Major returns the server's protocol major version. Servers so old they
// lack the version endpoint are reported as LegacyMajor.
func (d *Detector) Major(ctx context.Context, server string) (int64, error) {
	if v, ok := d.cache.Get(server); ok {
		return v.(int64), nil
	}

	major := int64(-1)
	var outErr error
	req := transport.Request{
		Method: http.MethodGet,
		URL:    strings.TrimRight(server, "/") + "/api",
		Key:    transport.Key("version", server),
	}
	d.client.IssueSync(ctx, req,
		func(payload any) {
			m, ok := payload.(map[string]any)
			if !ok {
				outErr = fmt.Errorf("unexpected version response shape from %s", server)
				return
			}
			raw, _ := m["version"].(string)
			v, err := semver.NewVersion(raw)
			if err != nil {
				outErr = fmt.Errorf("parse server version %q: %w", raw, err)
				return
			}
			major = v.Major
		},
		func(status int, err error) {
			if status == http.StatusNotFound {
				// No version endpoint at all: the server predates it.
				major = LegacyMajor
				return
			}
			outErr = err
		})
	if outErr != nil {
		d.log.WithFields(logrus.Fields{"server": server}).Error("protocol version detection failed")
		d.log.WithFields(logrus.Fields{"server": server}).Debugf("version detection detail: %v", outErr)
		return 0, outErr
	}

	d.cache.Set(server, major, gocache.NoExpiration)
	return major, nil
}

// IsLegacy reports whether the major version uses the legacy listing API.
func IsLegacy(major int64) bool {
	return major == LegacyMajor
}
