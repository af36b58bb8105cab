// Package fetch downloads remote import feeds with size, time and content limits.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	// ErrTooLarge is returned when the remote body exceeds the size limit
	ErrTooLarge = errors.New("remote feed exceeds the size limit")
	// ErrNotText is returned when the remote body is not delimited text
	ErrNotText = errors.New("remote feed is not a text file")
	// ErrUnsupportedURL is returned for anything but absolute http(s) URLs
	ErrUnsupportedURL = errors.New("only absolute http and https URLs can be fetched")
	// ErrForbiddenHost is returned for hosts outside the allowlist and for
	// loopback, private or link-local addresses
	ErrForbiddenHost = errors.New("remote host is not allowed")
)

const maxRedirects = 5

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote server answered %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Document is a fetched feed
type Document struct {
	Data        []byte
	FileName    string
	ContentType string
}

// Config bounds a fetch
type Config struct {
	Timeout    time.Duration
	MaxBytes   int64
	MaxRetries uint
	// AllowedHosts limits the hosts that may be fetched; "*.example.com"
	// matches subdomains. Empty allows any host.
	AllowedHosts []string
	// AllowPrivate disables the address guard
	AllowPrivate bool
}

// Fetcher downloads feeds over HTTP
type Fetcher struct {
	client *http.Client
	cfg    Config
	logger *zap.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the default instrumented client
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher. Zero limits fall back to 30s, 10 MiB and 3 tries.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	f := &Fetcher{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	f.client = &http.Client{
		Transport:     otelhttp.NewTransport(newTransport(cfg.AllowPrivate)),
		CheckRedirect: f.checkRedirect,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL. Network errors, 429 and 5xx answers are retried
// with exponential backoff until the timeout elapses.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrUnsupportedURL
	}
	if !f.hostAllowed(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrForbiddenHost, u.Hostname())
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond

	attempt := 0
	doc, err := backoff.Retry(ctx, func() (*Document, error) {
		attempt++
		doc, err := f.get(ctx, u)
		if err != nil && !isPermanent(err) {
			f.logger.Debug("Feed fetch failed, retrying",
				zap.String("host", u.Host),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return doc, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(f.cfg.MaxRetries),
		backoff.WithMaxElapsedTime(f.cfg.Timeout),
	)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Feed fetched",
		zap.String("host", u.Host),
		zap.Int("bytes", len(doc.Data)),
		zap.String("content_type", doc.ContentType),
	)
	return doc, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrForbiddenHost) || errors.Is(err, ErrUnsupportedURL) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil {
			return nil, backoff.RetryAfter(secs)
		}
		return nil, &StatusError{StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500:
		return nil, &StatusError{StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, backoff.Permanent(&StatusError{StatusCode: resp.StatusCode})
	}

	if resp.ContentLength > f.cfg.MaxBytes {
		return nil, backoff.Permanent(ErrTooLarge)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, backoff.Permanent(ErrTooLarge)
	}

	detected := mimetype.Detect(data)
	if !isText(detected) {
		return nil, backoff.Permanent(fmt.Errorf("%w: detected %s", ErrNotText, detected.String()))
	}

	return &Document{
		Data:        data,
		FileName:    fileName(resp, u),
		ContentType: detected.String(),
	}, nil
}

// DetectText reports the sniffed content type of data and whether it is
// delimited text an import profile can read
func DetectText(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	return detected.String(), isText(detected)
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func isPermanent(err error) bool {
	var permanent *backoff.PermanentError
	return errors.As(err, &permanent)
}

// fileName prefers the Content-Disposition filename, then the last URL path segment
func fileName(resp *http.Response, u *url.URL) string {
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			return path.Base(name)
		}
	}
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return "remote.csv"
}
