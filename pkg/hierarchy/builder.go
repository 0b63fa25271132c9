// Package hierarchy materializes the full tree of resources under a
// notebook server's root as one flattened, pre-order listing.
package hierarchy

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/nbremote/pkg/contents"
	"github.com/grovetools/nbremote/pkg/models"
)

// Builder walks a server's directory tree depth-first.
type Builder struct {
	svc *contents.Service
	log *logrus.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(svc *contents.Service, log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.New()
	}
	return &Builder{svc: svc, log: log}
}

// Report lists the directory paths whose fetch failed during a build. A
// failed branch contributes its own empty record to the listing and nothing
// below it; siblings and ancestors are unaffected.
type Report struct {
	Failed []string
}

// OK reports whether the build completed with no truncated branches.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Build fetches the tree rooted at path and returns it flattened in
// depth-first pre-order: every directory immediately precedes its
// descendants and sibling order matches the order the server reported.
// Fetches run in synchronous mode so the walk is ordinary recursion.
func (b *Builder) Build(ctx context.Context, server, path string) ([]*models.ContentRecord, *Report) {
	report := &Report{}
	records := b.walk(ctx, server, path, report)
	return records, report
}

func (b *Builder) walk(ctx context.Context, server, path string, report *Report) []*models.ContentRecord {
	rec := b.svc.QuerySync(ctx, server, path)
	out := []*models.ContentRecord{rec}
	if !rec.Populated() {
		report.Failed = append(report.Failed, path)
		b.log.WithFields(logrus.Fields{"server": server, "path": path}).
			Error("branch fetch failed, truncating")
		return out
	}

	children, ok := rec.Descriptors()
	if !ok {
		// Leaf resource; nothing below it.
		return out
	}
	for _, d := range children {
		if models.RecordType(d.Type) == models.TypeDirectory {
			out = append(out, b.walk(ctx, server, d.Path, report)...)
			continue
		}
		child := models.NewRecord(server)
		child.PopulateFromDescriptor(d)
		out = append(out, child)
	}
	return out
}
