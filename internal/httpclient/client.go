// Package httpclient provides the HTTP fetch layer for pages and scripts.
package httpclient

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PentesterFlow/WebScout/internal/errors"
	"golang.org/x/net/html/charset"
)

// maxBodySize caps how much of any response body is read.
const maxBodySize = 5 * 1024 * 1024

// Config holds the settings for the HTTP client.
type Config struct {
	Timeout             time.Duration
	UserAgent           string
	Headers             map[string]string
	SkipTLSVerify       bool
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:             10 * time.Second,
		MaxIdleConns:        500,
		MaxIdleConnsPerHost: 100,
		MaxConnsPerHost:     100,
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		SkipTLSVerify:       true,
	}
}

// Client fetches URLs from the target host. Cookies set by the server are
// carried across requests like a browser session, and response bodies are
// decoded to UTF-8 before the parsers see them.
type Client struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// New creates an HTTP client from the configuration.
func New(config Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.SkipTLSVerify,
		},
	}

	// cookiejar.New with nil options cannot fail.
	jar, _ := cookiejar.New(nil)

	return &Client{
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: config.UserAgent,
		headers:   config.Headers,
	}
}

// Response is the outcome of one fetch.
type Response struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        string
	Bytes       int64
	Duration    time.Duration
}

// IsHTML reports whether the response declared an HTML content type.
func (r *Response) IsHTML() bool {
	ct := strings.ToLower(r.ContentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// Get fetches a URL and returns the decoded body. Every status code
// yields a response; only transport failures return an error. Error pages
// are parsed like any other, the way a browser would render them.
func (c *Client) Get(ctx context.Context, targetURL string) (*Response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, errors.NewInvalidURLError(targetURL, err.Error())
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Categorize(err, targetURL)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	// Decode to UTF-8 using the declared charset, falling back to the raw
	// bytes when the declaration is unusable.
	var reader io.Reader = io.LimitReader(resp.Body, maxBodySize)
	if decoded, cerr := charset.NewReader(reader, contentType); cerr == nil {
		reader = decoded
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Categorize(err, targetURL)
	}

	return &Response{
		URL:         targetURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        string(body),
		Bytes:       int64(len(body)),
		Duration:    time.Since(start),
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
