package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"vagahunter-engine/internal/scrape/util"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; VagaHunter/1.0; +https://github.com/)"
	DefaultAccept    = "text/html,application/xhtml+xml"

	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second

	maxBodyBytes = 5 << 20
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	UserAgent         string
	Attempts          int
	RetryDelay        time.Duration
	RequestsPerSecond float64
	Burst             int
	Transport         http.RoundTripper
}

// Getter is the fetch contract the extractors depend on.
type Getter interface {
	Get(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error)
}

// Response is a fully read HTTP response. Any status code is a completed fetch.
type Response struct {
	StatusCode  int
	ContentType string
	URL         string
	Body        []byte
}

// IsHTML reports whether the body is an HTML document.
func (r *Response) IsHTML() bool {
	ct := r.ContentType
	if strings.TrimSpace(ct) == "" {
		ct = http.DetectContentType(r.Body)
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// OK reports whether the response carries usable page data.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK && r.IsHTML()
}

// FetchError is returned once every attempt for a URL has failed.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client performs GET requests with fixed headers, per-attempt timeouts,
// fixed-delay retries and per-host rate limiting. Build one per run.
type Client struct {
	hc      *http.Client
	opts    Options
	limiter *util.HostLimiter
}

func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	} else if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxIdleConnsPerHost = 4
		t.IdleConnTimeout = 30 * time.Second
		transport = t
	}
	return &Client{
		hc:      &http.Client{Transport: transport},
		opts:    opts,
		limiter: util.NewHostLimiter(opts.RequestsPerSecond, opts.Burst),
	}
}

// Close releases idle connections held by the run's transport.
func (c *Client) Close() {
	c.hc.CloseIdleConnections()
}

// Get fetches rawURL. Transport failures are retried up to the configured
// number of attempts with a fixed delay in between; HTTP statuses are not.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		if attempt > 1 {
			t := time.NewTimer(c.opts.RetryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, &FetchError{URL: rawURL, Attempts: attempts, Err: ctx.Err()}
			case <-t.C:
			}
		}

		attempts = attempt
		resp, err := c.do(ctx, rawURL, timeout)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			break
		}
		zap.L().Debug("fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return nil, &FetchError{URL: rawURL, Attempts: attempts, Err: lastErr}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, eris.Wrap(err, "rate limiter")
	}

	actx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(actx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &permanentError{err: eris.Wrap(err, "build request")}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", DefaultAccept)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         resp.Request.URL.String(),
		Body:        body,
	}, nil
}
