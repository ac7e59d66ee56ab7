package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/webdav-gateway/davclient/internal/client"
	"github.com/webdav-gateway/davclient/internal/config"
	"github.com/webdav-gateway/davclient/internal/middleware"
	"github.com/webdav-gateway/davclient/internal/webdav"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// app 一次命令执行共享的状态
type app struct {
	v          *viper.Viper
	cfgFile    string
	namespaces []string

	cfg      *config.Config
	logger   *logrus.Logger
	closer   io.Closer
	client   *client.Client
	codecs   *webdav.Codecs
	resolver *xmlutil.NamespaceResolver
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "davctl",
		Short:         "davctl talks to WebDAV servers and transcodes their XML",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.davctl.yaml)")
	flags.String("base-url", "", "WebDAV server base url, e.g. https://dav.example.com")
	flags.StringP("username", "u", "", "basic auth user")
	flags.StringP("password", "p", "", "basic auth password")
	flags.Duration("timeout", 0, "request timeout")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.StringSliceVar(&a.namespaces, "ns", nil, "namespace prefix mapping prefix=uri, repeatable")

	_ = a.v.BindPFlag("client.base_url", flags.Lookup("base-url"))
	_ = a.v.BindPFlag("client.username", flags.Lookup("username"))
	_ = a.v.BindPFlag("client.password", flags.Lookup("password"))
	_ = a.v.BindPFlag("client.timeout", flags.Lookup("timeout"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newPropfindCommand(a),
		newProppatchCommand(a),
		newAclCommand(a),
		newExportCommand(a),
		newStoredCommand(a),
	)
	return rootCmd
}

// setup 加载配置并创建日志、客户端
func (a *app) setup() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	a.cfg = cfg

	logger, closer, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("创建日志失败: %w", err)
	}
	a.logger = logger
	a.closer = closer

	a.resolver = xmlutil.NewNamespaceResolver()
	for _, mapping := range a.namespaces {
		prefix, uri, ok := strings.Cut(mapping, "=")
		if !ok || prefix == "" || uri == "" {
			return fmt.Errorf("invalid namespace mapping %q, expected prefix=uri", mapping)
		}
		a.resolver.AddMapping(prefix, uri)
	}

	a.codecs = webdav.NewCodecs()
	transport := middleware.Chain(
		client.NewHTTPTransport(cfg.Client),
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)
	a.client, err = client.New(cfg.Client.BaseURL, transport,
		client.WithLogger(logger),
		client.WithCodecs(a.codecs),
	)
	return err
}

func (a *app) teardown() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// property 把命令行中的属性名解析为属性
func (a *app) property(name string) (*webdav.Property, error) {
	namespace, local, err := a.resolver.ResolveName(name)
	if err != nil {
		return nil, err
	}
	return a.codecs.NewProperty(namespace, local), nil
}

func (a *app) properties(names []string) ([]*webdav.Property, error) {
	props := make([]*webdav.Property, 0, len(names))
	for _, name := range names {
		p, err := a.property(name)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

// printResult 207时输出multistatus，其它情况输出状态码和响应体
func printResult(out io.Writer, result *client.Result, format string) error {
	if result.Multistatus == nil {
		fmt.Fprintf(out, "%d %s\n", result.StatusCode, http.StatusText(result.StatusCode))
		if len(result.Body) > 0 {
			fmt.Fprintln(out, string(result.Body))
		}
		return nil
	}

	if format == "text" {
		printMultistatusText(out, result.Multistatus)
		return nil
	}

	el, err := result.Multistatus.ToElement()
	if err != nil {
		return err
	}
	data, err := xmlutil.NewSerializer().WithIndent(2).Serialize(el)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func printMultistatusText(out io.Writer, ms *webdav.Multistatus) {
	for _, resp := range ms.Responses() {
		fmt.Fprintln(out, resp.Href)
		if resp.Status != "" {
			fmt.Fprintf(out, "  status: %s\n", resp.Status)
		}
		for _, p := range resp.Properties() {
			status := "-"
			if code, ok := p.Status(); ok {
				status = fmt.Sprint(code)
			}
			fmt.Fprintf(out, "  {%s}%s [%s] %s\n", p.Namespace(), p.LocalName(), status, p.String())
		}
	}
}
