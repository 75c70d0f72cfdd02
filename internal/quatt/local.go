package quatt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"syscall"
	"time"
)

const (
	localPort      = 8080
	localFeedPath  = "/beta/feed/data.json"
	retryAttempts  = 3
	requestTimeout = 20 * time.Second
)

// LocalClient reads the CIC's unauthenticated JSON feed on the local network.
type LocalClient struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

func NewLocalClient(ipAddress string) *LocalClient {
	return &LocalClient{
		baseURL:    fmt.Sprintf("http://%s:%d", ipAddress, localPort),
		httpClient: &http.Client{Timeout: requestTimeout},
		retryDelay: 100 * time.Millisecond,
	}
}

func (c *LocalClient) GetData(ctx context.Context) (Feed, error) {
	url := c.baseURL + localFeedPath

	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		slog.Debug("Quatt.Local: fetching feed", "url", url, "attempt", attempt)
		feed, err := c.fetch(ctx, url)
		if err == nil {
			return feed, nil
		}
		if !isDisconnect(err) {
			return nil, err
		}

		lastErr = err
		slog.Debug("Quatt.Local: server disconnected, retrying", "attempt", attempt)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrCommunication, ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}
	return nil, fmt.Errorf("%w: server disconnected after %d attempts: %v", ErrCommunication, retryAttempts, lastErr)
}

func (c *LocalClient) fetch(ctx context.Context, url string) (Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrCommunication, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isDisconnect(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCommunication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d", ErrAuthentication, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrCommunication, resp.StatusCode)
	}

	var feed Feed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: decode feed: %v", ErrCommunication, err)
	}
	return feed, nil
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET)
}
