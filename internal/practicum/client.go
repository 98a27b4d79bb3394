// Package practicum talks to the Practicum homework_statuses API.
package practicum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	logx "hwbot/pkg/logx"
)

// DefaultEndpoint is the production review-status endpoint.
const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

const (
	maxResponseBodySize   = 1 << 20 // 1MB
	defaultRequestTimeout = 30 * time.Second
	snippetLen            = 200
)

// RawResponse is the decoded, not yet validated JSON body.
// Numbers are json.Number so integer timestamps keep full precision.
type RawResponse = any

type Config struct {
	Endpoint string
	Token    string
	// Timeout bounds one Poll call, including reading the body.
	Timeout time.Duration
}

// Client issues windowed status queries. It is safe for concurrent use.
type Client struct {
	endpoint string
	token    string
	timeout  time.Duration
	http     *http.Client
	log      logx.Logger
}

// NewClient builds a Client. httpClient may be nil; timeouts are applied per
// request through the context, not through the http.Client.
func NewClient(cfg Config, httpClient *http.Client, log logx.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("practicum endpoint: %w", err)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("practicum token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		timeout:  timeout,
		http:     httpClient,
		log:      log,
	}, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Poll asks for status changes since from (unix seconds).
//
// On HTTP 200 it returns the decoded body. Any transport failure, non-200
// status, or undecodable body is a *NetworkError; Poll never returns a
// partially decoded result.
func (c *Client) Poll(ctx context.Context, from int64) (RawResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	params := url.Values{}
	params.Set("from_date", strconv.FormatInt(from, 10))

	fail := func(status int, err error) error {
		return &NetworkError{Endpoint: c.endpoint, Params: params.Encode(), StatusCode: status, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.endpoint
	if strings.Contains(u, "?") {
		u += "&" + params.Encode()
	} else {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fail(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(0, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	c.log.Debug("poll response",
		logx.Int("status", resp.StatusCode),
		logx.Int("bytes", len(body)),
		logx.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fail(resp.StatusCode, fmt.Errorf("unexpected status %s: %s", resp.Status, snippet(body)))
	}
	if len(body) > maxResponseBodySize {
		return nil, fail(resp.StatusCode, fmt.Errorf("response body exceeds %d bytes", maxResponseBodySize))
	}

	var out any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decode body: %w", err))
	}
	if dec.More() {
		return nil, fail(resp.StatusCode, errors.New("decode body: trailing data"))
	}
	return out, nil
}

// snippet cuts b to at most snippetLen bytes on a rune boundary. The result
// ends up in operator alerts, which Telegram rejects when not valid UTF-8.
func snippet(b []byte) string {
	s := strings.ToValidUTF8(strings.TrimSpace(string(b)), "\uFFFD")
	if len(s) <= snippetLen {
		return s
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
