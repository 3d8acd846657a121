package broker

import (
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRedirects = 1

	userAgent = "Mozilla/5.0 (X11; U; Linux x86_64; ru; rv:1.9.0.19) Gecko/2010040121 Ubuntu/9.04 (jaunty) Firefox/3.0.19"
)

// brokerHeaders are sent on every brokerage request.
var brokerHeaders = [][2]string{
	{"User-Agent", userAgent},
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	{"Accept-Language", "ru,en-us;q=0.7,en;q=0.3"},
	{"Accept-Encoding", "gzip,deflate"},
	{"Accept-Charset", "windows-1251,utf-8;q=0.7,*;q=0.7"},
	{"Keep-Alive", "300"},
	{"Connection", "keep-alive"},
}

// HTTPClient is the transport the broker sends requests through.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var errTooManyRedirects = errors.New("stopped after too many redirects")

// NewHTTPClient returns the default brokerage client: 30s timeout and at
// most one redirect.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: defaultTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > defaultMaxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}
}

// readBody drains resp.Body, undoing the content encoding we asked for.
// Accept-Encoding is set explicitly, so net/http leaves decoding to us.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		fr := flate.NewReader(resp.Body)
		defer fr.Close()
		r = fr
	}
	return io.ReadAll(r)
}
