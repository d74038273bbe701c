// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package transport implements the HTTP transport interface from
// SPEC_FULL.md §6: `call(method, url, body?, headers?, timeout) ->
// {status, body_bytes, headers} | TransportError`, wrapped with
// github.com/sethvargo/go-retry for the configurable retry policy. This
// is a teacher go.mod dependency (go-retry) the retrieved subset never
// wires; the HTTP builtins in internal/rules/builtin are its home.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Response is the successful result of a Transport.Call.
type Response struct {
	Status  int
	Body    []byte
	Headers map[string][]string
}

// Error wraps a failure that left no usable response: the request could
// not be built, the connection failed, the body could not be read, or the
// server kept answering 5xx (SERVER_ERROR) until retries ran out. Any
// status below 500 is returned as a Response with Status set instead.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return e.Kind + ": " + e.Message }

// Transport is the collaborator the HTTP builtins call through, per
// §6's interface. Retry/backoff policy lives behind this interface so
// builtins never see raw net/http.
type Transport interface {
	Call(ctx context.Context, method, url string, body []byte, headers map[string]string, timeout time.Duration) (*Response, error)
}

// HTTPTransport is the production Transport, backed by net/http and an
// exponential backoff retry policy.
type HTTPTransport struct {
	Client     *http.Client
	MaxRetries uint64
	BaseDelay  time.Duration
}

func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		Client:     http.DefaultClient,
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
	}
}

func (t *HTTPTransport) Call(ctx context.Context, method, url string, body []byte, headers map[string]string, timeout time.Duration) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := retry.NewExponential(t.BaseDelay)
	backoff = retry.WithMaxRetries(t.MaxRetries, backoff)

	var resp *Response
	err := retry.Do(callCtx, backoff, func(ctx context.Context) error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return &Error{Kind: "REQUEST_BUILD_FAILED", Message: err.Error()}
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		httpResp, err := t.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err // context cancellation/deadline: not retryable
			}
			return retry.RetryableError(&Error{Kind: "CONNECTION_FAILED", Message: err.Error()})
		}
		defer httpResp.Body.Close()
		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &Error{Kind: "READ_FAILED", Message: err.Error()}
		}
		if httpResp.StatusCode >= 500 {
			return retry.RetryableError(&Error{Kind: "SERVER_ERROR", Message: httpResp.Status})
		}
		resp = &Response{Status: httpResp.StatusCode, Body: data, Headers: httpResp.Header}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
