package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webdav-gateway/davclient/internal/store"
)

func newStoredCommand(a *app) *cobra.Command {
	var limit, offset int
	var remove bool

	cmd := &cobra.Command{
		Use:   "stored [PATH]",
		Short: "List or delete properties kept in the export database",
		Long: `List the rows written by "davctl export" for the current base url.
With PATH only that resource is listed; --delete removes its rows instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var href string
			if len(args) == 1 {
				href = args[0]
			}
			if remove && href == "" {
				return fmt.Errorf("--delete needs a PATH")
			}

			s, err := store.Open(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.HealthCheck(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if remove {
				n, err := s.Delete(cmd.Context(), a.cfg.Client.BaseURL, href)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted %d properties\n", n)
				return nil
			}

			records, err := s.ListPage(cmd.Context(), a.cfg.Client.BaseURL, href, limit, offset)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s {%s}%s [%d] %s\n", r.Href, r.Namespace, r.Name, r.Status, r.Value)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to print, 0 for all")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the rows of PATH")
	return cmd
}
