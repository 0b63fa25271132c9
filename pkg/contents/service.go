// Package contents fetches and renames resources on remote notebook
// servers, normalizing the legacy and modern protocols into one record
// shape.
package contents

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/nbremote/pkg/apiversion"
	"github.com/grovetools/nbremote/pkg/models"
	"github.com/grovetools/nbremote/pkg/transport"
)

// Service is the content-record query and mutation layer.
type Service struct {
	client   *transport.Client
	versions *apiversion.Detector
	log      *logrus.Logger
}

// New creates a Service.
func New(client *transport.Client, versions *apiversion.Detector, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{client: client, versions: versions, log: log}
}

// Query fetches the record at path asynchronously. The returned record is
// empty until the response resolves and is populated in place by the
// response continuation; Resolved() closes once that has happened, and an
// empty record after resolution means the fetch failed. Concurrent queries
// for the same server and path share one underlying request.
func (s *Service) Query(ctx context.Context, server, path string) *models.ContentRecord {
	rec := models.NewRecord(server)
	// Version detection may itself hit the network, so the whole issue path
	// runs off the caller's control flow.
	go s.issue(ctx, rec, server, path)
	return rec
}

// QuerySync fetches the record at path, blocking until the continuation has
// run. The record stays empty on failure.
func (s *Service) QuerySync(ctx context.Context, server, path string) *models.ContentRecord {
	rec := models.NewRecord(server)
	s.issue(ctx, rec, server, path)
	return rec
}

func (s *Service) issue(ctx context.Context, rec *models.ContentRecord, server, path string) {
	fields := logrus.Fields{"server": server, "path": path}

	ad, err := s.adapterFor(ctx, server)
	if err != nil {
		s.log.WithFields(fields).Error("contents query failed")
		s.log.WithFields(fields).Debugf("query detail: %v", err)
		rec.Resolve()
		return
	}

	req := transport.Request{
		Method: http.MethodGet,
		URL:    ad.queryURL(server, path),
		Key:    transport.Key("contents", server, path),
	}
	onSuccess := func(payload any) {
		if err := ad.mapResponse(rec, path, payload); err != nil {
			s.log.WithFields(fields).Error("contents response shape mismatch")
			s.log.WithFields(fields).Debugf("shape mismatch detail: %v", err)
		}
		rec.Resolve()
	}
	onError := func(status int, err error) {
		s.log.WithFields(fields).WithField("status", status).Error("contents query failed")
		s.log.WithFields(fields).Debugf("query detail: %v", err)
		rec.Resolve()
	}
	s.client.IssueSync(ctx, req, onSuccess, onError)
}

func (s *Service) adapterFor(ctx context.Context, server string) (adapter, error) {
	major, err := s.versions.Major(ctx, server)
	if err != nil {
		return nil, fmt.Errorf("detect protocol version: %w", err)
	}
	return newAdapter(major), nil
}

type renameResponse struct {
	Path         string     `mapstructure:"path"`
	Name         string     `mapstructure:"name"`
	LastModified *time.Time `mapstructure:"last_modified"`
}

// Rename moves the resource behind rec to newPath. On success the same
// record object is mutated, so every holder of the pointer observes the new
// identity. On failure the record is left exactly as it was; there is no
// optimistic update and no retry.
func (s *Service) Rename(ctx context.Context, rec *models.ContentRecord, newPath string) error {
	fields := logrus.Fields{"server": rec.Server, "path": rec.Path, "new_path": newPath}

	req := transport.Request{
		Method: http.MethodPatch,
		URL:    endpointURL(rec.Server, "/api/contents", rec.Path),
		Body:   map[string]string{"path": newPath},
		Key:    transport.Key("rename", rec.Server, rec.Path, newPath),
	}
	var outErr error
	s.client.IssueSync(ctx, req,
		func(payload any) {
			var resp renameResponse
			if err := decode(payload, &resp); err != nil {
				outErr = fmt.Errorf("decode rename response: %w", err)
				return
			}
			rec.Path = resp.Path
			rec.Name = resp.Name
			rec.LastModified = resp.LastModified
		},
		func(status int, err error) {
			outErr = err
		})
	if outErr != nil {
		s.log.WithFields(fields).Error("rename failed")
		s.log.WithFields(fields).Debugf("rename detail: %v", outErr)
		return fmt.Errorf("rename %q: %w", rec.Path, outErr)
	}
	return nil
}
