package authfetch

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/kamalnath14061995/IndusionCricket-sub001/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, id string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": id}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

type fakeBackend struct {
	server       *httptest.Server
	dataCalls    int32
	refreshCalls int32
	validToken   string
	refreshDelay time.Duration
	refresh      func(w http.ResponseWriter, r *http.Request)
	lastBody     string
	mu           sync.Mutex
}

type backendOption func(*fakeBackend)

func withRefresh(refresh func(w http.ResponseWriter, r *http.Request)) backendOption {
	return func(fb *fakeBackend) { fb.refresh = refresh }
}

func withRefreshDelay(d time.Duration) backendOption {
	return func(fb *fakeBackend) { fb.refreshDelay = d }
}

func newFakeBackend(t *testing.T, validToken string, opts ...backendOption) *fakeBackend {
	fb := &fakeBackend{validToken: validToken}
	for _, opt := range opts {
		opt(fb)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fb.dataCalls, 1)
		b, _ := ioutil.ReadAll(r.Body)
		fb.mu.Lock()
		fb.lastBody = string(b)
		fb.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+fb.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("original"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc(RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fb.refreshCalls, 1)
		time.Sleep(fb.refreshDelay)
		if fb.refresh != nil {
			fb.refresh(w, r)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]string{
				"accessToken":  fb.validToken,
				"refreshToken": "refresh-2",
			},
		})
	})
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func readBody(t *testing.T, r *http.Response) string {
	t.Helper()
	defer r.Body.Close()
	b, err := ioutil.ReadAll(r.Body)
	require.NoError(t, err)
	return string(b)
}

func TestDoRefreshesAndRetriesOnce(t *testing.T) {
	oldToken, newToken := signToken(t, "old"), signToken(t, "new")
	fb := newFakeBackend(t, newToken)
	store := credentials.NewMemory(credentials.Pair{AccessToken: oldToken, RefreshToken: "refresh-1"})
	client := New(fb.server.URL, fb.server.Client(), store)

	response, err := client.Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/api/data",
		JSON:   map[string]int{"amount": 500},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "ok", readBody(t, response))
	assert.Equal(t, int32(2), atomic.LoadInt32(&fb.dataCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fb.refreshCalls))
	assert.Equal(t, `{"amount":500}`, fb.lastBody)
	assert.Equal(t, credentials.Pair{AccessToken: newToken, RefreshToken: "refresh-2"}, store.Get())
}

func TestDoWithoutRefreshTokenReturnsOriginal(t *testing.T) {
	fb := newFakeBackend(t, signToken(t, "new"))
	store := credentials.NewMemory(credentials.Pair{AccessToken: signToken(t, "old")})
	client := New(fb.server.URL, fb.server.Client(), store)

	response, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/data"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Equal(t, "original", readBody(t, response))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fb.dataCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&fb.refreshCalls))
}

func TestDoRefreshFailureReturnsOriginal(t *testing.T) {
	cases := map[string]func(w http.ResponseWriter, r *http.Request){
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"success false": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"message":"expired"}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		},
	}

	for name, refresh := range cases {
		t.Run(name, func(t *testing.T) {
			oldToken := signToken(t, "old")
			fb := newFakeBackend(t, signToken(t, "new"), withRefresh(refresh))
			store := credentials.NewMemory(credentials.Pair{AccessToken: oldToken, RefreshToken: "refresh-1"})
			client := New(fb.server.URL, fb.server.Client(), store)

			response, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/data"})
			require.NoError(t, err)

			assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
			assert.Equal(t, "original", readBody(t, response))
			assert.Equal(t, int32(1), atomic.LoadInt32(&fb.dataCalls))
			assert.Equal(t, int32(1), atomic.LoadInt32(&fb.refreshCalls))
			assert.Equal(t, oldToken, store.Get().AccessToken)
		})
	}
}

func TestDoDoesNotLoopWhenRetryFails(t *testing.T) {
	fb := newFakeBackend(t, "never-valid", withRefresh(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"accessToken":"x.y.z","refreshToken":"refresh-2"}}`))
	}))
	store := credentials.NewMemory(credentials.Pair{AccessToken: signToken(t, "old"), RefreshToken: "refresh-1"})
	client := New(fb.server.URL, fb.server.Client(), store)

	response, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/data"})
	require.NoError(t, err)
	response.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fb.dataCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fb.refreshCalls))
}

func TestDoConcurrentExpiryRefreshesOnce(t *testing.T) {
	newToken := signToken(t, "new")
	fb := newFakeBackend(t, newToken, withRefreshDelay(50*time.Millisecond))
	store := credentials.NewMemory(credentials.Pair{AccessToken: signToken(t, "old"), RefreshToken: "refresh-1"})
	client := New(fb.server.URL, fb.server.Client(), store)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			response, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/api/data"})
			if assert.NoError(t, err) {
				assert.Equal(t, http.StatusOK, response.StatusCode)
				response.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fb.refreshCalls))
}

func TestDoHeaders(t *testing.T) {
	var (
		mu      sync.Mutex
		lastHdr http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		lastHdr = r.Header.Clone()
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	received := func() http.Header {
		mu.Lock()
		defer mu.Unlock()
		return lastHdr
	}

	stored := signToken(t, "stored")

	t.Run("json body gets content type and stored bearer", func(t *testing.T) {
		client := New(server.URL, server.Client(), credentials.NewMemory(credentials.Pair{AccessToken: stored}))
		response, err := client.Do(context.Background(), &Request{Method: http.MethodPost, Path: "/x", JSON: struct{}{}})
		require.NoError(t, err)
		response.Body.Close()
		assert.Equal(t, "application/json", received().Get("Content-Type"))
		assert.Equal(t, "Bearer "+stored, received().Get("Authorization"))
		assert.NotEmpty(t, received().Get("X-Request-ID"))
	})

	t.Run("stream body gets no content type", func(t *testing.T) {
		client := New(server.URL, server.Client(), credentials.NewMemory(credentials.Pair{AccessToken: stored}))
		response, err := client.Do(context.Background(), &Request{Method: http.MethodPost, Path: "/x", Body: strings.NewReader("raw")})
		require.NoError(t, err)
		response.Body.Close()
		assert.Empty(t, received().Get("Content-Type"))
	})

	t.Run("caller authorization wins", func(t *testing.T) {
		client := New(server.URL, server.Client(), credentials.NewMemory(credentials.Pair{AccessToken: stored}))
		response, err := client.Do(context.Background(), &Request{
			Method: http.MethodGet,
			Path:   "/x",
			Header: http.Header{"Authorization": []string{"Basic abc"}},
		})
		require.NoError(t, err)
		response.Body.Close()
		assert.Equal(t, "Basic abc", received().Get("Authorization"))
	})

	t.Run("malformed stored token is not attached", func(t *testing.T) {
		client := New(server.URL, server.Client(), credentials.NewMemory(credentials.Pair{AccessToken: "not-a-jwt"}))
		response, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/x"})
		require.NoError(t, err)
		response.Body.Close()
		assert.Empty(t, received().Get("Authorization"))
	})
}

func TestDoPropagatesTransportErrors(t *testing.T) {
	client := New("http://127.0.0.1:1", http.DefaultClient, credentials.NewMemory(credentials.Pair{}))
	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/x"})
	assert.Error(t, err)
}
