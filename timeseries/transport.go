package timeseries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
	maxBackoff         = 30 * time.Second

	// maxErrorBody bounds how much of a failed response is read when
	// extracting the service error message.
	maxErrorBody = 8 << 10
)

// do performs one logical API call: build the request, attach the bearer
// token, send, and parse. Transient failures (429, 5xx, network errors)
// are retried with bounded exponential backoff; everything else is
// surfaced immediately.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindInvalidInput, Message: "encoding request body", Err: err}
		}
	}

	requestURL := c.env.BaseURL() + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Op: op, Kind: KindTransport, Message: "rate limiter wait", Err: err}
		}
	}

	var lastErr *Error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		apiErr, retryAfter := c.attempt(ctx, op, method, requestURL, payload, out)
		if apiErr == nil {
			return nil
		}
		lastErr = apiErr

		if !apiErr.retryable() || attempt == c.maxAttempts {
			break
		}

		delay := c.backoffDelay(attempt, retryAfter)
		c.logger.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt,
			"kind":      apiErr.Kind,
			"status":    apiErr.StatusCode,
			"delay":     delay.String(),
		}).Warn("transient failure, retrying")

		select {
		case <-ctx.Done():
			return &Error{Op: op, Kind: KindTransport, Message: "canceled during backoff", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
	return lastErr
}

// attempt issues a single HTTP request. It returns the classified error
// and any Retry-After hint from the response.
func (c *Client) attempt(ctx context.Context, op, method, requestURL string, payload []byte, out any) (*Error, time.Duration) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &Error{Op: op, Kind: KindAuth, Message: "acquiring access token", Err: err}, 0
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return &Error{Op: op, Kind: KindInvalidInput, Message: "building request", Err: err}, 0
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(op, 0, duration)
		return &Error{Op: op, Kind: KindTransport, RequestID: requestID, Message: "sending request", Err: err}, 0
	}
	defer resp.Body.Close()

	c.observe(op, resp.StatusCode, duration)
	c.logger.WithFields(logrus.Fields{
		"operation":  op,
		"method":     method,
		"status":     resp.StatusCode,
		"duration":   duration.String(),
		"request_id": requestID,
	}).Debug("request completed")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, 0
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Op: op, Kind: KindDecode, StatusCode: resp.StatusCode, RequestID: requestID, Message: "decoding response body", Err: err}, 0
		}
		return nil, 0
	}

	apiErr := classifyStatus(op, resp.StatusCode, requestID, serviceMessage(resp.Body))
	return apiErr, parseRetryAfter(resp.Header.Get("Retry-After"))
}

// classifyStatus maps an HTTP failure status onto an error kind.
func classifyStatus(op string, status int, requestID, message string) *Error {
	e := &Error{Op: op, StatusCode: status, RequestID: requestID, Message: message}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusTooManyRequests:
		e.Kind = KindThrottled
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindBadRequest
	}
	return e
}

// serviceMessage extracts the error message from a failed response body,
// falling back to a raw snippet when the body is not the documented
// error envelope.
func serviceMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		if envelope.Error.Code != "" {
			return fmt.Sprintf("%s: %s", envelope.Error.Code, envelope.Error.Message)
		}
		return envelope.Error.Message
	}
	return string(raw)
}

// backoffDelay computes the wait before the next attempt: the server's
// Retry-After hint when present, otherwise exponential backoff with
// jitter in [d/2, d].
func (c *Client) backoffDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter > maxBackoff {
			return maxBackoff
		}
		return retryAfter
	}
	d := c.backoffBase
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// parseRetryAfter handles the delay-seconds form of the header. The
// HTTP-date form is rare on this gateway and falls back to backoff.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) observe(op string, status int, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.observe(op, status, duration)
}
