// Package webdav is a small client for WebDAV file storage (nginx
// dav_module, Apache mod_dav and alike).
package webdav

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/openidgate/internal/metrics"
	"github.com/dropDatabas3/openidgate/internal/observability/logger"
)

var (
	ErrNoServers             = errors.New("webdav: no servers configured")
	ErrUnknownServer         = errors.New("webdav: unknown server")
	ErrUnknownCommand        = errors.New("webdav: unknown command")
	ErrNoMimeType            = errors.New("webdav: cannot detect mime type")
	ErrOperationNotAvailable = errors.New("webdav: operation not available")
)

// StatusError is returned for unexpected response codes.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webdav: %s %s: status %d", e.Method, e.URL, e.Code)
}

var allowedCommands = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodDelete: true,
	"MKCOL": true, "COPY": true, "MOVE": true, "PROPFIND": true, "PROPPATCH": true,
	"LOCK": true, "UNLOCK": true, http.MethodOptions: true,
}

type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
}

type Config struct {
	Servers       map[string]Server `yaml:"servers"`
	DefaultServer string            `yaml:"default_server"`
}

// HTTPClient is the transport the client sends commands through.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BasicAuth struct {
	User     string
	Password string
}

// CommandOptions are the optional parts of a raw command.
type CommandOptions struct {
	Body        []byte
	ContentType string
	Headers     map[string]string
	Auth        *BasicAuth
}

// Client talks to one of the configured servers. It is safe for concurrent use.
type Client struct {
	servers    map[string]Server
	defaultKey string
	server     string
	http       HTTPClient
}

type Option func(*Client)

func WithHTTPClient(c HTTPClient) Option { return func(cl *Client) { cl.http = c } }

// WithServer pins the client to a server key instead of the default one.
func WithServer(key string) Option { return func(cl *Client) { cl.server = key } }

// NewHTTPClient returns the default transport: 30s timeout, redirects are
// not followed.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}
	c := &Client{servers: cfg.Servers, defaultKey: cfg.DefaultServer}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient()
	}
	if c.server != "" {
		if _, ok := c.servers[c.server]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownServer, c.server)
		}
	}
	return c, nil
}

// Server returns the selected server: the pinned key, then the default
// key, then the last key in lexical order.
func (c *Client) Server() Server {
	if s, ok := c.servers[c.server]; ok && c.server != "" {
		return s
	}
	if s, ok := c.servers[c.defaultKey]; ok && c.defaultKey != "" {
		return s
	}
	keys := make([]string, 0, len(c.servers))
	for k := range c.servers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return c.servers[keys[len(keys)-1]]
}

// FullPath renders protocol://host[:port]path for the selected server.
func (c *Client) FullPath(p string) string {
	s := c.Server()
	proto := s.Protocol
	if proto == "" {
		proto = "http"
	}
	host := s.Host
	if s.Port != 0 && s.Port != 80 {
		host += ":" + strconv.Itoa(s.Port)
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return proto + "://" + host + p
}

// Command sends method to path and returns the response when its status is
// 2xx. The caller closes the body.
func (c *Client) Command(ctx context.Context, p, method string, opt CommandOptions) (*http.Response, error) {
	method = strings.ToUpper(method)
	if !allowedCommands[method] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, method)
	}
	target := c.FullPath(p)
	log := logger.From(ctx).With(logger.Component("webdav"), logger.Method(method), logger.URL(target))

	var body io.Reader
	if opt.Body != nil {
		body = bytes.NewReader(opt.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if opt.ContentType != "" {
		req.Header.Set("Content-Type", opt.ContentType)
	}
	for k, v := range opt.Headers {
		req.Header.Set(k, v)
	}
	if opt.Auth != nil {
		req.SetBasicAuth(opt.Auth.User, opt.Auth.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveWebDAV(method, 0)
		log.Warn("webdav command failed", logger.Err(err))
		return nil, err
	}
	metrics.ObserveWebDAV(method, resp.StatusCode)
	log.Debug("webdav command", logger.Status(resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Method: method, URL: target, Code: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, p, method string, opt CommandOptions) error {
	resp, err := c.Command(ctx, p, method, opt)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) FetchItem(ctx context.Context, p string) ([]byte, error) {
	resp, err := c.Command(ctx, p, http.MethodGet, CommandOptions{})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// StoreItem uploads data to p. An empty mimeType is detected from the
// extension of p.
func (c *Client) StoreItem(ctx context.Context, p string, data []byte, mimeType string) error {
	if mimeType == "" {
		mimeType = MimeTypeOf(p)
	}
	if mimeType == "" {
		return fmt.Errorf("%w: %q", ErrNoMimeType, p)
	}
	if data == nil {
		data = []byte{}
	}
	return c.do(ctx, p, http.MethodPut, CommandOptions{Body: data, ContentType: mimeType})
}

// DeleteItem removes p. An empty path is a no-op.
func (c *Client) DeleteItem(ctx context.Context, p string) error {
	if p == "" {
		return nil
	}
	if err := c.do(ctx, p, http.MethodDelete, CommandOptions{}); err != nil {
		return fmt.Errorf("error on delete: %w", err)
	}
	return nil
}

type itemOptions struct {
	native bool
	auth   *BasicAuth
}

// ItemOption tunes copy, move and rename.
type ItemOption func(*itemOptions)

// Fallback replaces server-side COPY/MOVE with fetch + store (+ delete).
func Fallback() ItemOption { return func(o *itemOptions) { o.native = false } }

// WithAuth sends basic credentials on the native command.
func WithAuth(user, password string) ItemOption {
	return func(o *itemOptions) { o.auth = &BasicAuth{User: user, Password: password} }
}

func itemOpts(opts []ItemOption) itemOptions {
	o := itemOptions{native: true}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (c *Client) CopyItem(ctx context.Context, src, dst string, opts ...ItemOption) error {
	o := itemOpts(opts)
	if o.native {
		return c.do(ctx, src, "COPY", CommandOptions{
			Headers: map[string]string{"Destination": c.FullPath(dst)},
			Auth:    o.auth,
		})
	}
	return c.transfer(ctx, src, dst)
}

func (c *Client) MoveItem(ctx context.Context, src, dst string, opts ...ItemOption) error {
	o := itemOpts(opts)
	if o.native {
		return c.do(ctx, src, "MOVE", CommandOptions{
			Headers: map[string]string{"Destination": c.FullPath(dst)},
			Auth:    o.auth,
		})
	}
	if err := c.transfer(ctx, src, dst); err != nil {
		return err
	}
	return c.DeleteItem(ctx, src)
}

// RenameItem moves p to a sibling named name.
func (c *Client) RenameItem(ctx context.Context, p, name string, opts ...ItemOption) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("webdav: invalid name %q", name)
	}
	dst := path.Join(path.Dir(strings.TrimSuffix(p, "/")), name)
	if strings.HasSuffix(p, "/") {
		dst += "/"
	}
	return c.MoveItem(ctx, p, dst, opts...)
}

func (c *Client) transfer(ctx context.Context, src, dst string) error {
	data, err := c.FetchItem(ctx, src)
	if err != nil {
		return err
	}
	return c.StoreItem(ctx, dst, data, MimeTypeOf(src))
}

// CreateFolder creates the collection p (MKCOL).
func (c *Client) CreateFolder(ctx context.Context, p string) error {
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return c.do(ctx, p, "MKCOL", CommandOptions{})
}

type listOptions struct{ byGet bool }

type ListOption func(*listOptions)

// ListByGet lists by scraping an autoindex page instead of PROPFIND.
func ListByGet() ListOption { return func(o *listOptions) { o.byGet = true } }

// ListItems returns the names of the direct members of collection p.
func (c *Client) ListItems(ctx context.Context, p string, opts ...ListOption) ([]string, error) {
	var o listOptions
	for _, fn := range opts {
		fn(&o)
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	if o.byGet {
		body, err := c.FetchItem(ctx, p)
		if err != nil {
			return nil, err
		}
		return parseAutoindex(body)
	}

	resp, err := c.Command(ctx, p, "PROPFIND", CommandOptions{
		Body:        []byte(propfindAllProp),
		ContentType: "application/xml; charset=utf-8",
		Headers:     map[string]string{"Depth": "1"},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	items, err := parseMultistatus(body, p)
	if err != nil {
		logger.From(ctx).Warn("webdav listing not decodable", logger.Component("webdav"), logger.Path(p), logger.Err(err))
	}
	return items, err
}

func (c *Client) FetchMetadata(context.Context, string) (map[string]string, error) {
	return nil, ErrOperationNotAvailable
}

func (c *Client) StoreMetadata(context.Context, string, map[string]string) error {
	return ErrOperationNotAvailable
}

func (c *Client) DeleteMetadata(context.Context, string, ...string) error {
	return ErrOperationNotAvailable
}
