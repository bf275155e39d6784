package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Error taxonomy. Transport failures are the only class that triggers the
// proxy fallback; everything else fails the request immediately.
var (
	// ErrTransport marks a network-level failure: no usable response at all
	// (the browser-world equivalent of a CORS block or status 0).
	ErrTransport = errors.New("transport failure")

	// ErrThrottled marks an HTTP 429 from the upstream, directly or through
	// the proxy envelope.
	ErrThrottled = errors.New("rate limited by upstream")

	// ErrMalformed marks a response that is not the expected shape.
	ErrMalformed = errors.New("malformed upstream response")
)

// UpstreamError is a well-formed semantic error from the API, fatal for the
// fetch it belongs to.
type UpstreamError struct {
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error %d: %s", e.Code, e.Message)
}

// proxyEnvelope is the CORS-forwarding proxy response: the upstream body as a
// JSON string, or an error envelope.
type proxyEnvelope struct {
	Contents string `json:"contents"`
	Status   *struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

// Client performs GET-and-decode requests with a two-step strategy: attempt
// the upstream directly, and on a transport-classified failure route the same
// logical request through the forwarding proxy.
type Client struct {
	http     *http.Client
	proxyURL string
	logger   *zap.Logger
}

func NewClient(timeout time.Duration, proxyURL string, logger *zap.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		proxyURL: proxyURL,
		logger:   logger,
	}
}

// GetJSON fetches rawURL and decodes the body into v. Classification: network
// error -> ErrTransport, 429 -> ErrThrottled, other >=400 -> UpstreamError,
// undecodable body -> ErrMalformed.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(ErrTransport, err.Error())
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrThrottled
	}
	if resp.StatusCode >= 400 {
		return &UpstreamError{Code: resp.StatusCode, Message: string(body)}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(ErrMalformed, err.Error())
	}
	return nil
}

// GetJSONViaProxy routes the request through the forwarding proxy and unwraps
// the envelope before decoding into v. An error envelope from the proxy is an
// upstream semantic error; a 429 code inside it is a throttle.
func (c *Client) GetJSONViaProxy(ctx context.Context, rawURL string, v interface{}) error {
	proxied := c.proxyURL + url.QueryEscape(rawURL)

	var env proxyEnvelope
	if err := c.GetJSON(ctx, proxied, &env); err != nil {
		return err
	}

	if env.Status != nil && env.Status.ErrorCode != 0 {
		if env.Status.ErrorCode == http.StatusTooManyRequests {
			return ErrThrottled
		}
		return &UpstreamError{Code: env.Status.ErrorCode, Message: env.Status.ErrorMessage}
	}
	if env.Contents == "" {
		return errors.Wrap(ErrMalformed, "empty proxy contents")
	}

	if err := json.Unmarshal([]byte(env.Contents), v); err != nil {
		return errors.Wrap(ErrMalformed, err.Error())
	}
	return nil
}

// GetJSONWithFallback tries the upstream directly and falls back to the proxy
// only when the direct attempt failed at the transport level.
func (c *Client) GetJSONWithFallback(ctx context.Context, rawURL string, v interface{}) error {
	err := c.GetJSON(ctx, rawURL, v)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrTransport) {
		return err
	}

	c.logger.Debug("direct request failed, retrying via proxy",
		zap.String("url", rawURL), zap.Error(err))
	return c.GetJSONViaProxy(ctx, rawURL, v)
}
