// Package api wraps the three remote services the client talks to:
// auth, profile and chat. Each operation maps 1:1 onto a remote
// endpoint, request-scoped, with no retry and no backoff — a failed
// call surfaces its error to the caller immediately.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZorinDanil/vestnik/internal/apperr"
)

// DefaultTimeout bounds every request-scoped call.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the http.Client shared by the service clients.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// errorBody is the error payload shape shared by all three services.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorBody) text() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	}
	return "request failed"
}

// statusToError maps an HTTP status to the client error taxonomy.
func statusToError(status int, msg string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Unauthorized(msg)
	case status == http.StatusNotFound:
		return apperr.NotFound(msg)
	case status == http.StatusConflict:
		return apperr.AlreadyExists(msg)
	case status >= 400 && status < 500:
		return apperr.InvalidArg(msg)
	default:
		return apperr.Internal(msg)
	}
}

// doRequest performs an HTTP request against url and decodes the
// response into out (skipped when out is nil). Non-2xx responses are
// decoded into the shared error shape and mapped onto apperr codes.
func doRequest(ctx context.Context, hc *http.Client, logger zerolog.Logger, method, url string, header http.Header, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "build request", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return apperr.Unavailable(method+" "+url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Unavailable("read response", err)
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		logger.Debug().
			Str("method", method).
			Str("url", url).
			Int("status", resp.StatusCode).
			Msg("request failed")
		return statusToError(resp.StatusCode, eb.text())
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperr.Protocol("decode response", err)
	}
	return nil
}

func jsonHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return h
}
