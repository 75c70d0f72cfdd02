package quatt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
)

const (
	DefaultRemoteBaseURL = "https://mobile-api.quatt.io/api/v1"
	DefaultTokenURL      = "https://securetoken.googleapis.com/v1/token"
)

// Tokens are the credentials of a paired mobile API session.
type Tokens struct {
	IDToken        string
	RefreshToken   string
	InstallationID string
}

type TokenStore interface {
	LoadTokens(ctx context.Context, cic string) (*Tokens, error)
	SaveTokens(ctx context.Context, cic string, tokens *Tokens) error
}

// RemoteClient talks to the mobile API on behalf of an already paired CIC.
type RemoteClient struct {
	cic        string
	apiKey     string
	baseURL    string
	tokenURL   string
	httpClient *http.Client
	store      TokenStore

	lock   sync.Mutex
	tokens Tokens
}

func NewRemoteClient(cic string, apiKey string, store TokenStore) *RemoteClient {
	return &RemoteClient{
		cic:        cic,
		apiKey:     apiKey,
		baseURL:    DefaultRemoteBaseURL,
		tokenURL:   DefaultTokenURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		store:      store,
	}
}

// LoadTokens restores the session from the store. seedRefreshToken is used when
// the store has nothing for this CIC yet.
func (c *RemoteClient) LoadTokens(ctx context.Context, seedRefreshToken string) error {
	var tokens *Tokens
	if c.store != nil {
		var err error
		if tokens, err = c.store.LoadTokens(ctx, c.cic); err != nil {
			return fmt.Errorf("load tokens: %w", err)
		}
	}
	if tokens == nil {
		tokens = &Tokens{RefreshToken: seedRefreshToken}
	}
	if tokens.IDToken == "" && tokens.RefreshToken == "" {
		return fmt.Errorf("%w: no tokens for cic %v", ErrAuthentication, c.cic)
	}

	c.lock.Lock()
	c.tokens = *tokens
	c.lock.Unlock()
	slog.Debug("Quatt.Remote: tokens loaded", "cic", c.cic)
	return nil
}

// GetData returns the CIC document with the "result" wrapper removed.
func (c *RemoteClient) GetData(ctx context.Context) (Feed, error) {
	body, err := c.do(ctx, http.MethodGet, "/me/cic/"+url.PathEscape(c.cic), nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Result Feed `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: decode cic data: %v", ErrCommunication, err)
	}
	if response.Result == nil {
		return Feed{}, nil
	}
	return response.Result, nil
}

// UpdateSettings writes CIC settings such as dayMaxSoundLevel.
func (c *RemoteClient) UpdateSettings(ctx context.Context, settings map[string]any) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if _, err = c.do(ctx, http.MethodPut, "/me/cic/"+url.PathEscape(c.cic), payload); err != nil {
		return err
	}
	slog.Info("Quatt.Remote: settings updated", "cic", c.cic, "settings", settings)
	return nil
}

// RefreshToken exchanges the refresh token for a new id token and persists both.
func (c *RemoteClient) RefreshToken(ctx context.Context) error {
	c.lock.Lock()
	refreshToken := c.tokens.RefreshToken
	c.lock.Unlock()
	if refreshToken == "" {
		return fmt.Errorf("%w: no refresh token", ErrAuthentication)
	}

	payload, _ := json.Marshal(map[string]string{
		"grantType":    "refresh_token",
		"refreshToken": refreshToken,
	})
	endpoint := c.tokenURL
	if c.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: create refresh request: %v", ErrCommunication, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: refresh token: %v", ErrCommunication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: refresh token failed with status %d: %s", ErrAuthentication, resp.StatusCode, string(body))
	}

	var data struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Errorf("%w: decode refresh response: %v", ErrCommunication, err)
	}
	if data.IDToken == "" {
		return fmt.Errorf("%w: refresh response without id token", ErrAuthentication)
	}

	c.lock.Lock()
	c.tokens.IDToken = data.IDToken
	if data.RefreshToken != "" {
		c.tokens.RefreshToken = data.RefreshToken
	}
	tokens := c.tokens
	c.lock.Unlock()
	slog.Debug("Quatt.Remote: token refresh successful", "cic", c.cic)

	if c.store != nil {
		if err := c.store.SaveTokens(ctx, c.cic, &tokens); err != nil {
			slog.Error("Quatt.Remote: save tokens failed", "err", err)
		}
	}
	return nil
}

func (c *RemoteClient) do(ctx context.Context, method string, path string, payload []byte) ([]byte, error) {
	c.lock.Lock()
	hasIDToken := c.tokens.IDToken != ""
	c.lock.Unlock()
	if !hasIDToken {
		if err := c.RefreshToken(ctx); err != nil {
			return nil, err
		}
	}

	status, body, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		slog.Warn("Quatt.Remote: token rejected, attempting refresh", "status", status)
		if err := c.RefreshToken(ctx); err != nil {
			return nil, err
		}
		if status, body, err = c.send(ctx, method, path, payload); err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, fmt.Errorf("%w: status %d after token refresh", ErrAuthentication, status)
		}
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: %v %v failed with status %d: %s", ErrCommunication, method, path, status, string(body))
	}
	return body, nil
}

func (c *RemoteClient) send(ctx context.Context, method string, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: create request: %v", ErrCommunication, err)
	}
	c.lock.Lock()
	req.Header.Set("Authorization", "Bearer "+c.tokens.IDToken)
	c.lock.Unlock()
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCommunication, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrCommunication, err)
	}
	return resp.StatusCode, body, nil
}
