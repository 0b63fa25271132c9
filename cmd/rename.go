package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/nbremote/pkg/service"
)

func NewRenameCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename [server] [path] [new-path]",
		Short: "Move a resource to a new path",
		Long: `Rename (move) a file, directory, or notebook on a notebook server.

The resource is fetched first, then moved with a single path-change request.
There is no retry and no optimistic update: on failure the resource and its
record are untouched.

Examples:
  nbremote rename lab notebooks/old.ipynb notebooks/new.ipynb
  nbremote rename lab scratch archive/scratch`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			server, err := s.ResolveServer(args[0])
			if err != nil {
				return err
			}
			path, newPath := args[1], args[2]

			rec, err := s.Rename(context.Background(), server, path, newPath)
			if err != nil {
				return err
			}

			fmt.Printf("renamed %s -> %s\n", path, rec.Path)
			return nil
		},
	}

	return cmd
}
