package quatt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newLocalTestClient(transport http.RoundTripper) *LocalClient {
	client := NewLocalClient("192.0.2.10")
	client.httpClient = &http.Client{Transport: transport}
	client.retryDelay = 0
	return client
}

func TestLocalClientGetData(t *testing.T) {
	var gotURL string
	client := newLocalTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"hp1": {"power": 1500}}`)),
			Header:     make(http.Header),
		}, nil
	}))

	feed, err := client.GetData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://192.0.2.10:8080/beta/feed/data.json", gotURL)
	value, ok := feed.Value("hp1.power")
	assert.True(t, ok)
	assert.Equal(t, 1500.0, value)
}

func TestLocalClientRetriesDisconnects(t *testing.T) {
	attempts := 0
	client := newLocalTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, io.EOF
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{}`)),
			Header:     make(http.Header),
		}, nil
	}))

	_, err := client.GetData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestLocalClientGivesUpAfterRetries(t *testing.T) {
	attempts := 0
	client := newLocalTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		return nil, io.ErrUnexpectedEOF
	}))

	_, err := client.GetData(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommunication))
	assert.Equal(t, retryAttempts, attempts)
}

func TestLocalClientStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuthentication},
		{http.StatusForbidden, ErrAuthentication},
		{http.StatusInternalServerError, ErrCommunication},
	}
	for _, tt := range tests {
		client := newLocalTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: tt.status,
				Body:       io.NopCloser(strings.NewReader(``)),
				Header:     make(http.Header),
			}, nil
		}))
		_, err := client.GetData(context.Background())
		assert.True(t, errors.Is(err, tt.want), "status %d: %v", tt.status, err)
	}
}

type memoryTokenStore struct {
	lock   sync.Mutex
	tokens map[string]Tokens
	saves  int
}

func (s *memoryTokenStore) LoadTokens(_ context.Context, cic string) (*Tokens, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if tokens, ok := s.tokens[cic]; ok {
		return &tokens, nil
	}
	return nil, nil
}

func (s *memoryTokenStore) SaveTokens(_ context.Context, cic string, tokens *Tokens) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tokens[cic] = *tokens
	s.saves++
	return nil
}

func newRemoteTestServer(t *testing.T, validToken string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["grantType"] != "refresh_token" || body["refreshToken"] != "refresh-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id_token":      validToken,
			"refresh_token": "refresh-2",
		})
	})
	mux.HandleFunc("/me/cic/CIC-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"meta": {}, "result": {"heatPumps": [{"oduType": "AMM4-V2.0"}], "dayMaxSoundLevel": "normal"}}`))
		case http.MethodPut:
			var settings map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&settings))
			assert.Equal(t, "library", settings["nightMaxSoundLevel"])
			w.WriteHeader(http.StatusNoContent)
		}
	})
	return httptest.NewServer(mux)
}

func newRemoteTestClient(server *httptest.Server, store TokenStore) *RemoteClient {
	client := NewRemoteClient("CIC-1", "test-key", store)
	client.baseURL = server.URL
	client.tokenURL = server.URL + "/token"
	client.httpClient = server.Client()
	return client
}

func TestRemoteClientRefreshesExpiredToken(t *testing.T) {
	server := newRemoteTestServer(t, "id-2")
	defer server.Close()

	store := &memoryTokenStore{tokens: map[string]Tokens{
		"CIC-1": {IDToken: "id-1", RefreshToken: "refresh-1"},
	}}
	client := newRemoteTestClient(server, store)
	require.NoError(t, client.LoadTokens(context.Background(), ""))

	feed, err := client.GetData(context.Background())
	require.NoError(t, err)
	value, ok := feed.Value("heatPumps.0.oduType")
	assert.True(t, ok)
	assert.Equal(t, "AMM4-V2.0", value)

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, Tokens{IDToken: "id-2", RefreshToken: "refresh-2"}, store.tokens["CIC-1"])
}

func TestRemoteClientSeedsFromRefreshToken(t *testing.T) {
	server := newRemoteTestServer(t, "id-2")
	defer server.Close()

	store := &memoryTokenStore{tokens: map[string]Tokens{}}
	client := newRemoteTestClient(server, store)
	require.NoError(t, client.LoadTokens(context.Background(), "refresh-1"))

	err := client.UpdateSettings(context.Background(), map[string]any{
		"dayMaxSoundLevel":   "normal",
		"nightMaxSoundLevel": "library",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
}

func TestRemoteClientWithoutTokens(t *testing.T) {
	client := NewRemoteClient("CIC-1", "", &memoryTokenStore{tokens: map[string]Tokens{}})
	err := client.LoadTokens(context.Background(), "")
	assert.True(t, errors.Is(err, ErrAuthentication))
}

func TestRemoteClientRejectedRefresh(t *testing.T) {
	server := newRemoteTestServer(t, "id-2")
	defer server.Close()

	store := &memoryTokenStore{tokens: map[string]Tokens{
		"CIC-1": {IDToken: "stale", RefreshToken: "revoked"},
	}}
	client := newRemoteTestClient(server, store)
	require.NoError(t, client.LoadTokens(context.Background(), ""))

	_, err := client.GetData(context.Background())
	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.Equal(t, 0, store.saves)
}
