package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webdav-gateway/davclient/internal/store"
)

func newExportCommand(a *app) *cobra.Command {
	f := &propfindFlags{}

	cmd := &cobra.Command{
		Use:   "export PATH [PROPERTY...]",
		Short: "Store the properties of a PROPFIND answer in the export database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.propfindOptions(f, args[1:])
			if err != nil {
				return err
			}
			result, err := a.client.Propfind(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if result.Multistatus == nil {
				return fmt.Errorf("PROPFIND %s: expected 207 Multi-Status, got %d", args[0], result.StatusCode)
			}

			s, err := store.Open(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.SaveMultistatus(cmd.Context(), a.cfg.Client.BaseURL, result.Multistatus)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d properties from %d resources\n", n, result.Multistatus.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.depth, "depth", "d", "", "Depth header: 0, 1 or infinity (default from config)")
	cmd.Flags().BoolVar(&f.allprop, "allprop", false, "request all properties")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "extra properties for --allprop")
	return cmd
}
