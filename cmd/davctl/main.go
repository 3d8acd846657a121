package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/openidgate/internal/observability/logger"
	"github.com/dropDatabas3/openidgate/internal/util/atomicwrite"
	"github.com/dropDatabas3/openidgate/internal/webdav"
)

type options struct {
	configPath string
	server     string
	host       string
	port       int
	protocol   string
	user       string
	password   string
	fallback   bool
	verbose    bool
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// davConfig reads the webdav section of a service config file, or builds a
// single server from the flags.
func (o *options) davConfig() (webdav.Config, error) {
	if o.configPath != "" {
		b, err := os.ReadFile(o.configPath)
		if err != nil {
			return webdav.Config{}, err
		}
		var f struct {
			WebDAV webdav.Config `yaml:"webdav"`
		}
		if err := yaml.Unmarshal(b, &f); err != nil {
			return webdav.Config{}, fmt.Errorf("parse %s: %w", o.configPath, err)
		}
		return f.WebDAV, nil
	}
	if o.host == "" {
		return webdav.Config{}, fmt.Errorf("missing --host (or env DAV_HOST) or --config")
	}
	return webdav.Config{
		Servers:       map[string]webdav.Server{"cli": {Host: o.host, Port: o.port, Protocol: o.protocol}},
		DefaultServer: "cli",
	}, nil
}

func (o *options) client() (*webdav.Client, error) {
	cfg, err := o.davConfig()
	if err != nil {
		return nil, err
	}
	var opts []webdav.Option
	if o.server != "" {
		opts = append(opts, webdav.WithServer(o.server))
	}
	return webdav.New(cfg, opts...)
}

func (o *options) itemOptions() []webdav.ItemOption {
	var out []webdav.ItemOption
	if o.fallback {
		out = append(out, webdav.Fallback())
	}
	if o.user != "" {
		out = append(out, webdav.WithAuth(o.user, o.password))
	}
	return out
}

func main() {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(envOr("DAV_PORT", "0"))
	o := &options{
		host:     envOr("DAV_HOST", ""),
		port:     port,
		protocol: envOr("DAV_PROTOCOL", "http"),
		user:     envOr("DAV_USER", ""),
		password: envOr("DAV_PASSWORD", ""),
	}

	root := &cobra.Command{
		Use:           "davctl",
		Short:         "Command line WebDAV client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := "warn"
			if o.verbose {
				level = "debug"
			}
			logger.Init(logger.Config{Env: "dev", Level: level, ServiceName: "davctl", OutputPaths: []string{"stderr"}})
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "service config.yaml (uses the webdav section)")
	pf.StringVar(&o.server, "server", "", "server key inside --config")
	pf.StringVar(&o.host, "host", o.host, "host WebDAV (env DAV_HOST)")
	pf.IntVar(&o.port, "port", o.port, "port (env DAV_PORT)")
	pf.StringVar(&o.protocol, "protocol", o.protocol, "http|https (env DAV_PROTOCOL)")
	pf.StringVar(&o.user, "user", o.user, "basic auth user for COPY/MOVE (env DAV_USER)")
	pf.StringVar(&o.password, "password", o.password, "password basic auth (env DAV_PASSWORD)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "log every command")

	root.AddCommand(
		lsCmd(o), getCmd(o), putCmd(o), rmCmd(o),
		transferCmd(o, "cp", "Copy an item", func(ctx context.Context, c *webdav.Client, src, dst string, opts ...webdav.ItemOption) error {
			return c.CopyItem(ctx, src, dst, opts...)
		}),
		transferCmd(o, "mv", "Move an item", func(ctx context.Context, c *webdav.Client, src, dst string, opts ...webdav.ItemOption) error {
			return c.MoveItem(ctx, src, dst, opts...)
		}),
		renameCmd(o), mkdirCmd(o),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := root.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func lsCmd(o *options) *cobra.Command {
	var byGet bool
	cmd := &cobra.Command{
		Use:   "ls <path>",
		Short: "List a collection (PROPFIND, or GET of the autoindex with --get-listing)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			var lo []webdav.ListOption
			if byGet {
				lo = append(lo, webdav.ListByGet())
			}
			items, err := c.ListItems(cmd.Context(), args[0], lo...)
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintln(cmd.OutOrStdout(), it)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&byGet, "get-listing", false, "parse the server HTML listing instead of PROPFIND")
	return cmd
}

func getCmd(o *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Download an item (stdout or -o file)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			data, err := c.FetchItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return atomicwrite.WriteFile(out, bytes.NewReader(data), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "target file")
	return cmd
}

func putCmd(o *options) *cobra.Command {
	var mime string
	cmd := &cobra.Command{
		Use:   "put <local|-> <path>",
		Short: "Upload a local file (or stdin with -)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			return c.StoreItem(cmd.Context(), args[1], data, mime)
		},
	}
	cmd.Flags().StringVar(&mime, "mime", "", "content type (defaults by extension)")
	return cmd
}

func rmCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			return c.DeleteItem(cmd.Context(), args[0])
		},
	}
}

type transferFunc func(ctx context.Context, c *webdav.Client, src, dst string, opts ...webdav.ItemOption) error

func transferCmd(o *options, use, short string, fn transferFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <src> <dst>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			return fn(cmd.Context(), c, args[0], args[1], o.itemOptions()...)
		},
	}
	cmd.Flags().BoolVar(&o.fallback, "fallback", false, "GET + PUT (+ DELETE) instead of native COPY/MOVE")
	return cmd
}

func renameCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename an item inside its collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			return c.RenameItem(cmd.Context(), args[0], args[1], o.itemOptions()...)
		},
	}
	cmd.Flags().BoolVar(&o.fallback, "fallback", false, "GET + PUT + DELETE instead of native MOVE")
	return cmd
}

func mkdirCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a collection (MKCOL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			return c.CreateFolder(cmd.Context(), args[0])
		},
	}
}
