package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/nbremote/pkg/service"
)

func NewTreeCmd(svc **service.Service) *cobra.Command {
	var treeJSON bool

	cmd := &cobra.Command{
		Use:   "tree [server] [path]",
		Short: "List a server's hierarchy",
		Long: `Rebuild and print the hierarchy of a notebook server as a flattened
depth-first listing: each directory immediately precedes its contents.
An optional path restricts the listing to that subtree; omitting it walks
the whole server from its root.

Branches whose fetch fails are kept as single unresolved entries and
reported on stderr; the rest of the tree is listed normally.

Examples:
  nbremote tree lab
  nbremote tree lab notebooks/experiments
  nbremote tree http://localhost:8888 --json`,
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

			records, report := s.Refresh(context.Background(), server, path)

			if treeJSON {
				data, err := json.MarshalIndent(records, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal hierarchy: %w", err)
				}
				fmt.Println(string(data))
			} else {
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TYPE\tPATH\tMODIFIED")
				for _, rec := range records {
					recType := string(rec.Type)
					if !rec.Populated() {
						recType = "?"
					}
					modified := ""
					if rec.LastModified != nil {
						modified = rec.LastModified.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", recType, displayPath(rec.Path), modified)
				}
				w.Flush()
			}

			if !report.OK() {
				for _, path := range report.Failed {
					fmt.Fprintf(os.Stderr, "warning: branch %q could not be fetched\n", displayPath(path))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&treeJSON, "json", false, "Output the hierarchy as JSON")

	return cmd
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
