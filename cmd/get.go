package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/nbremote/pkg/models"
	"github.com/grovetools/nbremote/pkg/service"
)

func NewGetCmd(svc **service.Service) *cobra.Command {
	var getJSON bool

	cmd := &cobra.Command{
		Use:   "get [server] [path]",
		Short: "Fetch one file, directory, or notebook record",
		Long: `Fetch the record describing a single resource on a notebook server.

The server may be a configured name or a bare URL. An empty or omitted path
addresses the server's root directory.

Examples:
  nbremote get lab notebooks/analysis.ipynb
  nbremote get lab                         # root directory listing
  nbremote get http://localhost:8888 data --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			server, err := s.ResolveServer(args[0])
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 2 {
				path = args[1]
			}

			rec := s.Get(context.Background(), server, path)
			if !rec.Populated() {
				return fmt.Errorf("fetch %q from %s failed (see log for detail)", path, server)
			}

			if getJSON {
				data, err := json.MarshalIndent(rec, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal record: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			printRecord(rec)
			return nil
		},
	}

	cmd.Flags().BoolVar(&getJSON, "json", false, "Output the record as JSON")

	return cmd
}

func printRecord(rec *models.ContentRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", rec.Name)
	fmt.Fprintf(w, "Path:\t%s\n", rec.Path)
	fmt.Fprintf(w, "Type:\t%s\n", rec.Type)
	if rec.Format != models.FormatNone {
		fmt.Fprintf(w, "Format:\t%s\n", rec.Format)
	}
	if rec.MimeType != nil {
		fmt.Fprintf(w, "Mime type:\t%s\n", *rec.MimeType)
	}
	if rec.Writable != nil {
		fmt.Fprintf(w, "Writable:\t%t\n", *rec.Writable)
	}
	if rec.LastModified != nil {
		fmt.Fprintf(w, "Modified:\t%s\n", rec.LastModified.Format(time.RFC3339))
	}
	if children, ok := rec.Descriptors(); ok {
		fmt.Fprintf(w, "Entries:\t%d\n", len(children))
		for _, d := range children {
			fmt.Fprintf(w, "\t%s\t%s\n", d.Type, d.Path)
		}
	}
	w.Flush()
}
