package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webdav-gateway/davclient/internal/client"
	"github.com/webdav-gateway/davclient/internal/types"
	"github.com/webdav-gateway/davclient/internal/webdav"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

func newAclCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "acl PATH",
		Short: "Show or replace the access control list of a resource",
		Long: `Without --file the DAV:acl property is fetched and printed one ACE per line.
With --file the given <D:acl> document ("-" for stdin) is sent with the ACL method.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				return a.setAcl(cmd, args[0], file)
			}
			return a.showAcl(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "ACL document to send")
	return cmd
}

func (a *app) showAcl(cmd *cobra.Command, path string) error {
	result, err := a.client.Propfind(cmd.Context(), path, client.PropfindOptions{
		Props: []*webdav.Property{a.codecs.NewProperty(types.NamespaceDAV, "acl")},
	})
	if err != nil {
		return err
	}
	if result.Multistatus == nil {
		return printResult(cmd.OutOrStdout(), result, "text")
	}

	out := cmd.OutOrStdout()
	for _, resp := range result.Multistatus.Responses() {
		prop, ok := resp.Property(types.NamespaceDAV, "acl")
		if !ok {
			continue
		}
		value, err := prop.Value()
		if err != nil {
			return err
		}
		acl, ok := value.(*webdav.Acl)
		if !ok {
			continue
		}
		fmt.Fprintln(out, resp.Href)
		for _, ace := range acl.Aces() {
			fmt.Fprintf(out, "  %s\n", formatAce(ace))
		}
	}
	return nil
}

func (a *app) setAcl(cmd *cobra.Command, path, file string) error {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return err
	}

	root, err := xmlutil.Parse(data)
	if err != nil {
		return err
	}
	acl, err := webdav.ParseAcl(root, a.codecs)
	if err != nil {
		return err
	}

	result, err := a.client.Acl(cmd.Context(), path, acl)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result, "text")
}

// formatAce 单行格式："grant href:/principals/alice read,write"
func formatAce(ace *webdav.Ace) string {
	var principal string
	switch p := ace.Principal.(type) {
	case webdav.PrincipalConstant:
		principal = p.String()
	case webdav.PrincipalHref:
		principal = "href:" + string(p)
	case webdav.PrincipalProperty:
		principal = fmt.Sprintf("property:{%s}%s", p.Property.Namespace(), p.Property.LocalName())
	}
	if ace.InvertPrincipal {
		principal = "not " + principal
	}

	names := make([]string, 0)
	for _, priv := range ace.Privileges() {
		if priv.Namespace() == types.NamespaceDAV {
			names = append(names, priv.LocalName())
		} else {
			names = append(names, fmt.Sprintf("{%s}%s", priv.Namespace(), priv.LocalName()))
		}
	}

	line := fmt.Sprintf("%s %s %s", ace.GrantDeny(), principal, strings.Join(names, ","))
	if ace.IsProtected {
		line += " (protected)"
	}
	if ace.InheritedFrom != "" {
		line += " (inherited from " + ace.InheritedFrom + ")"
	}
	return line
}
