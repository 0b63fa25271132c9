package models

import (
	"strings"
	"time"
)

// RecordType classifies a content record as reported by the server.
type RecordType string

const (
	TypeDirectory RecordType = "directory"
	TypeFile      RecordType = "file"
	TypeNotebook  RecordType = "notebook"
)

// Format describes how RawContent is encoded.
type Format string

const (
	FormatJSON   Format = "json"
	FormatText   Format = "text"
	FormatBase64 Format = "base64"
	FormatNone   Format = ""
)

// ContentRecord describes one file, directory, or notebook on a remote
// notebook server.
//
// A record is allocated empty (only Server set) at the moment a fetch is
// issued and is handed back to the caller in that state. The fetch's success
// continuation populates it in place, exactly once; on failure it stays
// empty. The record is deliberately shared, not copied, so every holder of
// the pointer observes the same population.
type ContentRecord struct {
	Server       string     `json:"server"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	Type         RecordType `json:"type,omitempty"`
	Writable     *bool      `json:"writable,omitempty"`
	Created      *time.Time `json:"created,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	MimeType     *string    `json:"mimetype,omitempty"`
	Format       Format     `json:"format,omitempty"`
	RawContent   any        `json:"content,omitempty"`

	resolved chan struct{}
}

// Descriptor is one raw child entry from a directory listing, before it has
// been turned into a ContentRecord of its own. For directories RawContent
// holds a []Descriptor.
type Descriptor struct {
	Name         string     `json:"name" mapstructure:"name"`
	Path         string     `json:"path" mapstructure:"path"`
	Type         string     `json:"type,omitempty" mapstructure:"type"`
	Created      *time.Time `json:"created,omitempty" mapstructure:"created"`
	LastModified *time.Time `json:"last_modified,omitempty" mapstructure:"last_modified"`
	Format       string     `json:"format,omitempty" mapstructure:"format"`
	Writable     *bool      `json:"writable,omitempty" mapstructure:"writable"`
	MimeType     *string    `json:"mimetype,omitempty" mapstructure:"mimetype"`
	Content      any        `json:"content,omitempty" mapstructure:"content"`
}

// NewRecord allocates an empty record bound to a server. The server identity
// never changes for the life of the record.
func NewRecord(server string) *ContentRecord {
	return &ContentRecord{Server: server, resolved: make(chan struct{})}
}

// Resolved returns a channel closed once the record's fetch has completed,
// successfully or not. An unpopulated record after resolution means the
// fetch failed.
func (r *ContentRecord) Resolved() <-chan struct{} {
	return r.resolved
}

// Resolve marks the record's fetch as complete. Called exactly once, by the
// continuation that owns the record.
func (r *ContentRecord) Resolve() {
	if r.resolved == nil {
		return
	}
	select {
	case <-r.resolved:
	default:
		close(r.resolved)
	}
}

// Populated reports whether the record's fetch continuation has run. An
// unpopulated record after a fetch means the fetch failed; no explicit error
// is attached to the record itself.
func (r *ContentRecord) Populated() bool {
	return r.Type != ""
}

// Descriptors returns the raw child listing of a directory record.
func (r *ContentRecord) Descriptors() ([]Descriptor, bool) {
	ds, ok := r.RawContent.([]Descriptor)
	return ds, ok
}

// IsDir reports whether the record describes a directory.
func (r *ContentRecord) IsDir() bool {
	return r.Type == TypeDirectory
}

// PopulateFromDescriptor fills the record from a normalized child
// descriptor. Descriptors are always in the modern field shape by the time
// they reach a record, whichever protocol produced them.
func (r *ContentRecord) PopulateFromDescriptor(d Descriptor) {
	r.Name = d.Name
	r.Path = d.Path
	r.Type = RecordType(d.Type)
	r.Created = d.Created
	r.LastModified = d.LastModified
	r.Format = Format(d.Format)
	r.Writable = d.Writable
	r.RawContent = d.Content
	// mimetype is meaningful for files only
	if r.Type == TypeFile {
		r.MimeType = d.MimeType
	} else {
		r.MimeType = nil
	}
	r.Resolve()
}

// BaseName returns the final separator-delimited segment of a path, or the
// whole path when it contains no separator. The root path yields "".
func BaseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
