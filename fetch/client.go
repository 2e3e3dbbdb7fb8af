// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch retrieves source payloads over HTTP or from the local disk.
package fetch

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ATorbado/leon-radares/sources"
	"github.com/ATorbado/leon-radares/utils/httputils"
	"github.com/rotisserie/eris"
)

// Common errors returned by the client.
var (
	ErrNoURL             = errors.New("source has no URL configured")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrBadStatus         = errors.New("unexpected HTTP status")
	ErrTooLarge          = errors.New("payload exceeds the size limit")
)

// DefaultMaxPayload bounds the bytes read from a single source.
const DefaultMaxPayload = 64 << 20

// ClientOptions configuration for Client.
type ClientOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// BaseDir resolves relative file:// locations
	BaseDir string

	// TraceWriter receives the HTTP trace, defaults to stderr
	TraceWriter io.Writer

	// MaxPayload overrides DefaultMaxPayload when positive
	MaxPayload int64
}

// Client retrieves payloads. Deadlines come from the caller's context.
type Client struct {
	client  *http.Client
	options *ClientOptions
}

// NewClient creates a new client with the provided options.
func NewClient(options *ClientOptions) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = options.TraceWriter
		if httpLogWriter == nil {
			httpLogWriter = os.Stderr
		}
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "leon-radares/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "*/*",
		},
		Transport: loggingTransport,
	}

	return &Client{
		client:  &http.Client{Transport: headerTransport},
		options: options,
	}
}

// Fetch retrieves the payload at rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*sources.Payload, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrNoURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing %q", rawURL)
	}

	switch u.Scheme {
	case "http", "https":
		return c.fetchHTTP(ctx, u.String())
	case "file":
		return c.fetchFile(ctx, u)
	default:
		return nil, eris.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}
}

func (c *Client) fetchHTTP(ctx context.Context, target string) (*sources.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "creating request for %s", target)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "requesting %s", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(ErrBadStatus, "%s: %s", target, resp.Status)
	}

	limit := c.maxPayload()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, eris.Wrapf(err, "reading body of %s", target)
	}

	if int64(len(body)) > limit {
		return nil, eris.Wrapf(ErrTooLarge, "%s: more than %d bytes", target, limit)
	}

	return &sources.Payload{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

func (c *Client) maxPayload() int64 {
	if c.options.MaxPayload > 0 {
		return c.options.MaxPayload
	}

	return DefaultMaxPayload
}

func (c *Client) fetchFile(ctx context.Context, u *url.URL) (*sources.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "reading local payload")
	}

	// file://closures/x.json carries "closures" as host
	path := filepath.FromSlash(u.Host + u.Path)
	if !filepath.IsAbs(path) && c.options.BaseDir != "" {
		path = filepath.Join(c.options.BaseDir, path)
	}

	body, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, eris.Wrapf(err, "reading %s", path)
	}

	return &sources.Payload{Body: body, ContentType: mime.TypeByExtension(filepath.Ext(path))}, nil
}
