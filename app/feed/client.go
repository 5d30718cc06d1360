package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 60 * time.Second
	DefaultUserAgent      = "rssfetcher/1.0"
)

// Client retrieves feed documents, one GET per call
type Client struct {
	userAgent      string
	connectTimeout time.Duration
	readTimeout    time.Duration
	logger         *zap.Logger
}

func NewClient(userAgent string, connectTimeout, readTimeout time.Duration, logger *zap.Logger) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Client{
		userAgent:      userAgent,
		connectTimeout: connectTimeout,
		readTimeout:    readTimeout,
		logger:         logger,
	}
}

// Fetch downloads rawURL through the given scheme to proxy mapping.
// The body is decoded as UTF-8 whatever charset the server declares;
// invalid sequences are replaced with U+FFFD and a leading BOM is dropped.
func (c *Client) Fetch(ctx context.Context, rawURL string, proxies map[string]string) ([]byte, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	transport := c.transport(proxies)
	defer transport.CloseIdleConnections()
	httpClient := &http.Client{Transport: transport}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: FetchRequest, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		kind := FetchConnect
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = FetchTimeout
		}
		return nil, &FetchError{URL: rawURL, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        rawURL,
			Kind:       FetchStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP error: %s", resp.Status),
		}
	}

	// The read timeout bounds each read of the body, not the whole transfer.
	timer := time.AfterFunc(c.readTimeout, cancel)
	defer timer.Stop()
	body := &idleTimeoutReader{r: resp.Body, timer: timer, timeout: c.readTimeout}

	data, err := io.ReadAll(transform.NewReader(body, unicode.UTF8BOM.NewDecoder()))
	if err != nil {
		if fetchCtx.Err() != nil && ctx.Err() == nil {
			err = fmt.Errorf("no data received for %s: %w", c.readTimeout, err)
		}
		return nil, &FetchError{URL: rawURL, Kind: FetchRead, Err: err}
	}

	c.logger.Debug("feed downloaded",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)))

	return data, nil
}

func (c *Client) transport(proxies map[string]string) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   c.connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 proxyFunc(proxies),
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   c.connectTimeout,
		ResponseHeaderTimeout: c.readTimeout,
		ForceAttemptHTTP2:     true,
	}
}

type idleTimeoutReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleTimeoutReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}
