package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webdav-gateway/davclient/internal/webdav"
)

func newProppatchCommand(a *app) *cobra.Command {
	var set, remove []string
	var format string

	cmd := &cobra.Command{
		Use:   "proppatch PATH",
		Short: "Set or remove dead properties",
		Example: `  davctl proppatch /docs/report.txt --ns Z=urn:example --set Z:color=blue --remove Z:stale`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setProps := make([]*webdav.Property, 0, len(set))
			for _, assignment := range set {
				name, value, ok := strings.Cut(assignment, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, expected NAME=VALUE", assignment)
				}
				p, err := a.property(name)
				if err != nil {
					return err
				}
				p.SetValue(value)
				setProps = append(setProps, p)
			}

			removeProps, err := a.properties(remove)
			if err != nil {
				return err
			}

			result, err := a.client.Proppatch(cmd.Context(), args[0], setProps, removeProps)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringArrayVar(&set, "set", nil, "NAME=VALUE to set, repeatable")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "NAME to remove, repeatable")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: xml or text")
	return cmd
}
