package main

import (
	"github.com/spf13/cobra"

	"github.com/webdav-gateway/davclient/internal/client"
	"github.com/webdav-gateway/davclient/internal/webdav"
)

type propfindFlags struct {
	depth    string
	allprop  bool
	propname bool
	include  []string
	format   string
}

func newPropfindCommand(a *app) *cobra.Command {
	f := &propfindFlags{}

	cmd := &cobra.Command{
		Use:   "propfind PATH [PROPERTY...]",
		Short: "List properties of a resource",
		Long: `Send a PROPFIND request and print the multistatus answer.

Properties are given as D:getetag, {urn:example}color or a bare local name in DAV:.
Without properties (and without --propname) all properties are requested.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.propfindOptions(f, args[1:])
			if err != nil {
				return err
			}
			result, err := a.client.Propfind(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, f.format)
		},
	}

	cmd.Flags().StringVarP(&f.depth, "depth", "d", "", "Depth header: 0, 1 or infinity (default from config)")
	cmd.Flags().BoolVar(&f.allprop, "allprop", false, "request all properties")
	cmd.Flags().BoolVar(&f.propname, "propname", false, "request property names only")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "extra properties for --allprop")
	cmd.Flags().StringVarP(&f.format, "format", "o", "xml", "output format: xml or text")
	return cmd
}

func (a *app) propfindOptions(f *propfindFlags, names []string) (client.PropfindOptions, error) {
	var opts client.PropfindOptions

	depth := f.depth
	if depth == "" {
		depth = a.cfg.Client.Depth
	}
	if depth != "" {
		d, err := webdav.ParseDepth(depth)
		if err != nil {
			return opts, err
		}
		opts.Depth = d
	}

	switch {
	case f.propname:
		opts.Mode = webdav.PropfindPropName
	case f.allprop || len(names) == 0:
		opts.Mode = webdav.PropfindAllProp
		include, err := a.properties(f.include)
		if err != nil {
			return opts, err
		}
		opts.Include = include
	default:
		props, err := a.properties(names)
		if err != nil {
			return opts, err
		}
		opts.Mode = webdav.PropfindProps
		opts.Props = props
	}
	return opts, nil
}
