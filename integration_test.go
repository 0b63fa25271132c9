//go:build integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/grovetools/nbremote/pkg/models"
	"github.com/grovetools/nbremote/pkg/service"
)

// fakeNotebookServer serves a small modern contents tree with an in-memory
// rename implementation.
func fakeNotebookServer() *httptest.Server {
	tree := map[string]any{
		"": map[string]any{
			"name": "", "path": "", "type": "directory", "format": "json",
			"content": []any{
				map[string]any{"name": "run.ipynb", "path": "run.ipynb", "type": "notebook", "format": "json"},
				map[string]any{"name": "data", "path": "data", "type": "directory", "format": "json"},
			},
		},
		"data": map[string]any{
			"name": "data", "path": "data", "type": "directory", "format": "json",
			"content": []any{
				map[string]any{"name": "raw.csv", "path": "data/raw.csv", "type": "file", "format": "text", "mimetype": "text/csv"},
			},
		},
	}

	r := chi.NewRouter()
	r.Get("/api", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"version": "6.5.4"})
	})
	r.Get("/api/contents", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(tree[""])
	})
	r.Get("/api/contents/*", func(w http.ResponseWriter, req *http.Request) {
		resp, ok := tree[chi.URLParam(req, "*")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		json.NewEncoder(w).Encode(resp)
	})
	r.Patch("/api/contents/*", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"path":          body["path"],
			"name":          models.BaseName(body["path"]),
			"last_modified": "2024-06-01T00:00:00Z",
		})
	})
	return httptest.NewServer(r)
}

func TestIntegration(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=1 to run.")
	}

	srv := fakeNotebookServer()
	defer srv.Close()

	svc, err := service.New(&service.Config{
		Servers:  map[string]service.ServerConfig{"test": {URL: srv.URL}},
		LogLevel: "error",
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	server, err := svc.ResolveServer("test")
	if err != nil {
		t.Fatalf("Failed to resolve server: %v", err)
	}
	ctx := context.Background()

	t.Run("Get", func(t *testing.T) {
		rec := svc.Get(ctx, server, "run.ipynb")
		if !rec.Populated() {
			t.Fatal("Expected record to resolve")
		}
		if rec.Type != models.TypeNotebook {
			t.Errorf("Expected notebook, got %s", rec.Type)
		}
	})

	t.Run("RefreshAndCache", func(t *testing.T) {
		records, report := svc.Refresh(ctx, server, "")
		if !report.OK() {
			t.Fatalf("Expected clean refresh, failed branches: %v", report.Failed)
		}

		want := []string{"", "run.ipynb", "data", "data/raw.csv"}
		if len(records) != len(want) {
			t.Fatalf("Expected %d records, got %d", len(want), len(records))
		}
		for i, path := range want {
			if records[i].Path != path {
				t.Errorf("Record %d: expected path %q, got %q", i, path, records[i].Path)
			}
		}

		cached, ok := svc.Cache.Get(server)
		if !ok || len(cached) != len(records) {
			t.Error("Expected refresh to install the hierarchy into the cache")
		}
	})

	t.Run("Rename", func(t *testing.T) {
		rec, err := svc.Rename(ctx, server, "run.ipynb", "archive/run.ipynb")
		if err != nil {
			t.Fatalf("Rename failed: %v", err)
		}
		if rec.Path != "archive/run.ipynb" {
			t.Errorf("Expected updated path, got %q", rec.Path)
		}
		if rec.Name != "run.ipynb" {
			t.Errorf("Expected name derived from response, got %q", rec.Name)
		}
	})
}
