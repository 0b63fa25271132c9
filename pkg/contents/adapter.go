package contents

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/grovetools/nbremote/pkg/apiversion"
	"github.com/grovetools/nbremote/pkg/models"
)

// adapter hides one server protocol generation behind a uniform query
// contract. An adapter is selected once per server from its detected
// protocol major version.
type adapter interface {
	// queryURL builds the endpoint URL for fetching a path.
	queryURL(server, path string) string
	// mapResponse populates rec from the decoded response body. It must not
	// fabricate fields the protocol does not carry.
	mapResponse(rec *models.ContentRecord, path string, payload any) error
}

// modernAdapter speaks the uniform contents API: every path, file or
// directory, is described by a single resource object.
type modernAdapter struct{}

func (modernAdapter) queryURL(server, path string) string {
	return endpointURL(server, "/api/contents", path)
}

func (modernAdapter) mapResponse(rec *models.ContentRecord, path string, payload any) error {
	// Decode everything, children included, before touching rec: a record
	// must stay fully empty when any part of the response is malformed.
	var d models.Descriptor
	if err := decode(payload, &d); err != nil {
		return fmt.Errorf("decode contents response for %q: %w", path, err)
	}
	recType := models.RecordType(d.Type)
	content := d.Content
	if recType == models.TypeDirectory {
		children, err := decodeDescriptors(d.Content)
		if err != nil {
			return fmt.Errorf("decode child listing for %q: %w", path, err)
		}
		content = children
	}
	rec.Name = d.Name
	rec.Path = d.Path
	rec.Type = recType
	rec.Created = d.Created
	rec.LastModified = d.LastModified
	rec.Format = models.Format(d.Format)
	rec.Writable = d.Writable
	if recType == models.TypeFile {
		rec.MimeType = d.MimeType
	} else {
		rec.MimeType = nil
	}
	rec.RawContent = content
	return nil
}

// legacyAdapter speaks the protocol-2 notebooks API, which only ever returns
// directory listings as a bare JSON array. The directory resource itself is
// synthesized from the queried path; metadata the protocol does not report
// stays absent.
type legacyAdapter struct{}

func (legacyAdapter) queryURL(server, path string) string {
	return endpointURL(server, "/api/notebooks", path)
}

func (legacyAdapter) mapResponse(rec *models.ContentRecord, path string, payload any) error {
	raw, ok := payload.([]any)
	if !ok {
		return fmt.Errorf("legacy listing for %q is not an array", path)
	}
	children, err := repairDescriptors(raw)
	if err != nil {
		return fmt.Errorf("decode legacy listing for %q: %w", path, err)
	}
	rec.Name = models.BaseName(path)
	rec.Path = path
	rec.Type = models.TypeDirectory
	rec.RawContent = children
	return nil
}

// newAdapter picks the protocol strategy for a detected major version.
func newAdapter(major int64) adapter {
	if apiversion.IsLegacy(major) {
		return legacyAdapter{}
	}
	return modernAdapter{}
}

// repairDescriptors decodes a legacy child array and corrects each
// descriptor's path: an empty stated path becomes the bare name, anything
// else becomes "statedPath/name". The repair recurses into nested
// descriptor arrays.
func repairDescriptors(raw []any) ([]models.Descriptor, error) {
	out := make([]models.Descriptor, 0, len(raw))
	for i, entry := range raw {
		var d models.Descriptor
		if err := decode(entry, &d); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		if d.Path == "" {
			d.Path = d.Name
		} else {
			d.Path = d.Path + "/" + d.Name
		}
		if nested, ok := d.Content.([]any); ok {
			repaired, err := repairDescriptors(nested)
			if err != nil {
				return nil, fmt.Errorf("descriptor %d children: %w", i, err)
			}
			d.Content = repaired
		}
		out = append(out, d)
	}
	return out, nil
}

// decodeDescriptors converts a modern directory's content array into typed
// descriptors, preserving server order.
func decodeDescriptors(content any) ([]models.Descriptor, error) {
	if content == nil {
		return nil, nil
	}
	raw, ok := content.([]any)
	if !ok {
		return nil, fmt.Errorf("directory content is not an array")
	}
	out := make([]models.Descriptor, 0, len(raw))
	for i, entry := range raw {
		var d models.Descriptor
		if err := decode(entry, &d); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// decode maps a loosely-typed JSON value onto a typed struct, parsing
// timestamps along the way. Unknown fields are ignored: servers grow
// response fields we do not model.
func decode(input any, result any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:     result,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// endpointURL joins server, endpoint, and an escaped resource path. The
// empty path addresses the server root.
func endpointURL(server, endpoint, path string) string {
	base := strings.TrimRight(server, "/") + endpoint
	if path == "" {
		return base
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return base + "/" + strings.Join(segments, "/")
}
