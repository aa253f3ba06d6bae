package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// TransientStatuses is the fixed set of status codes eligible for
// transport-level retry.
var TransientStatuses = []int{
	http.StatusBadRequest,
	http.StatusRequestTimeout,
	http.StatusConflict,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

const (
	defaultRetryMax = 3
	requestTimeout  = 30 * time.Second
)

// NewRetrying builds a client that retries only when the response status
// is in the given set. Network errors are returned as-is, never retried.
func NewRetrying(logger *slog.Logger, statuses ...int) *retryablehttp.Client {
	retryable := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		retryable[s] = true
	}

	c := retryablehttp.NewClient()
	c.HTTPClient.Timeout = requestTimeout
	c.RetryMax = defaultRetryMax
	c.RetryWaitMin = 1 * time.Second
	c.RetryWaitMax = 8 * time.Second
	c.Logger = nil
	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return false, err
		}
		if retryable[resp.StatusCode] {
			logger.Debug("retrying transient status",
				"status", resp.StatusCode,
				"url", resp.Request.URL.String())
			return true, nil
		}
		return false, nil
	}
	// Once the retry budget is spent the caller still needs the final
	// response to map its status; never swap it for a synthetic error.
	c.ErrorHandler = func(resp *http.Response, err error, _ int) (*http.Response, error) {
		if resp != nil {
			return resp, nil
		}
		return nil, err
	}
	return c
}

// NewPlain builds the client used by calls that do not opt in to retry.
func NewPlain() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
