package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/nbremote/pkg/service"
)

func NewServersCmd(svc **service.Service) *cobra.Command {
	var serversYAML bool

	cmd := &cobra.Command{
		Use:   "servers",
		Short: "List configured notebook servers",
		Long: `List the notebook servers defined in the config file.

Servers are configured under the 'servers' key:

  servers:
    lab:
      url: http://localhost:8888
      token: abc123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			names := s.ServerNames()
			if len(names) == 0 {
				fmt.Fprintln(os.Stderr, "No servers configured.")
				return nil
			}

			if serversYAML {
				out := make(map[string]service.ServerConfig, len(names))
				for _, name := range names {
					sc, _ := s.Server(name)
					sc.Token = "" // never print tokens
					out[name] = sc
				}
				data, err := yaml.Marshal(out)
				if err != nil {
					return fmt.Errorf("marshal servers: %w", err)
				}
				fmt.Print(string(data))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tURL")
			for _, name := range names {
				sc, _ := s.Server(name)
				fmt.Fprintf(w, "%s\t%s\n", name, sc.URL)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().BoolVar(&serversYAML, "yaml", false, "Output servers as YAML")

	return cmd
}
