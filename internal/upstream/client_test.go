package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTimeout = 5 * time.Second

	oldAccess  = "old-access-token"
	newAccess  = "new-access-token"
	oldRefresh = "old-refresh-token"
	newRefresh = "new-refresh-token"
)

func writeInvalidToken(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":{"code":"INVALID_TOKEN","message":"access token expired","request_id":"req-1"}}`)
}

func writeTokenPair(w http.ResponseWriter, access, refresh string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"data":{"access_token":%q,"refresh_token":%q}}`, access, refresh)
}

func seededClient(t *testing.T, server *httptest.Server, invalidated *atomic.Int32) (*Client, *MemoryStore) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(TokenPair{AccessToken: oldAccess, RefreshToken: oldRefresh}))

	client := NewClient(server.URL, testTimeout, store, func() {
		if invalidated != nil {
			invalidated.Add(1)
		}
	})
	return client, store
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer server.Close()

	client, _ := seededClient(t, server, nil)
	var out map[string]interface{}
	require.NoError(t, client.Get(context.Background(), "/api/admin/employees", nil, &out))

	assert.Equal(t, "Bearer "+oldAccess, gotAuth)
}

// N concurrent requests hitting an expired token must produce exactly one
// refresh call, after which every request is retried with the same new token.
func TestClient_SingleFlightRefresh(t *testing.T) {
	const concurrent = 8

	var refreshCalls atomic.Int32
	arrived := make(chan struct{}, concurrent)
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(100 * time.Millisecond) // keep the refresh in flight while everyone joins
		writeTokenPair(w, newAccess, newRefresh)
	})
	mux.HandleFunc("/api/admin/attendance/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+newAccess {
			// hold all first-round requests so their 401s land together
			arrived <- struct{}{}
			<-release
			writeInvalidToken(w)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, store := seededClient(t, server, nil)

	var wg sync.WaitGroup
	errs := make([]error, concurrent)
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out map[string]interface{}
			errs[i] = client.Get(context.Background(), "/api/admin/attendance/events", nil, &out)
		}(i)
	}

	for i := 0; i < concurrent; i++ {
		<-arrived
	}
	close(release)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load())

	pair, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, newAccess, pair.AccessToken)
	assert.Equal(t, newRefresh, pair.RefreshToken)
}

// A request already retried once must not be retried again when the
// refreshed token is also rejected.
func TestClient_NoDoubleRetry(t *testing.T) {
	var protectedCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeTokenPair(w, newAccess, "")
	})
	mux.HandleFunc("/api/admin/employees", func(w http.ResponseWriter, r *http.Request) {
		protectedCalls.Add(1)
		writeInvalidToken(w)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, store := seededClient(t, server, nil)

	err := client.Get(context.Background(), "/api/admin/employees", nil, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidToken(err))

	assert.Equal(t, int32(2), protectedCalls.Load(), "original call plus exactly one retry")
	assert.Equal(t, int32(1), refreshCalls.Load())

	// old refresh token was kept because the refresh response omitted one
	pair, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, oldRefresh, pair.RefreshToken)
}

// 401 responses from the auth endpoints themselves never trigger a refresh.
func TestClient_AuthEndpointsExempt(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeInvalidToken(w)
	})
	mux.HandleFunc("/api/admin/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeInvalidToken(w)
	})
	mux.HandleFunc("/api/admin/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeInvalidToken(w)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := seededClient(t, server, nil)

	_, err := client.Login(context.Background(), "admin@example.com", "secret")
	require.Error(t, err)

	err = client.Post(context.Background(), "/api/admin/auth/refresh", map[string]string{"refresh_token": oldRefresh}, nil)
	require.Error(t, err)

	client.Logout(context.Background())

	// the one direct call above is the only hit on the refresh endpoint
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestClient_RefreshFailureForcesLogout(t *testing.T) {
	var invalidated atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"INVALID_TOKEN","message":"refresh token revoked"}}`)
	})
	mux.HandleFunc("/api/admin/employees", func(w http.ResponseWriter, r *http.Request) {
		writeInvalidToken(w)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, store := seededClient(t, server, &invalidated)

	err := client.Get(context.Background(), "/api/admin/employees", nil, nil)
	require.Error(t, err)
	// the original 401 is what surfaces, not the refresh failure
	assert.True(t, IsInvalidToken(err))

	assert.Equal(t, int32(1), invalidated.Load())
	pair, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.True(t, pair.Empty())
}

func TestClient_MissingRefreshTokenSkipsNetworkCall(t *testing.T) {
	var refreshCalls atomic.Int32
	var invalidated atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeTokenPair(w, newAccess, newRefresh)
	})
	mux.HandleFunc("/api/admin/employees", func(w http.ResponseWriter, r *http.Request) {
		writeInvalidToken(w)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Save(TokenPair{AccessToken: oldAccess}))
	client := NewClient(server.URL, testTimeout, store, func() { invalidated.Add(1) })

	err := client.Get(context.Background(), "/api/admin/employees", nil, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidToken(err))

	assert.Equal(t, int32(0), refreshCalls.Load())
	assert.Equal(t, int32(1), invalidated.Load())
}

func TestClient_MalformedRefreshResponseIsFailure(t *testing.T) {
	var invalidated atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`) // 200 but no tokens
	})
	mux.HandleFunc("/api/admin/employees", func(w http.ResponseWriter, r *http.Request) {
		writeInvalidToken(w)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, store := seededClient(t, server, &invalidated)

	err := client.Get(context.Background(), "/api/admin/employees", nil, nil)
	require.Error(t, err)

	assert.Equal(t, int32(1), invalidated.Load())
	pair, _ := store.Load()
	assert.True(t, pair.Empty())
}

func TestClient_Non401ErrorsPassThrough(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeTokenPair(w, newAccess, newRefresh)
	})
	mux.HandleFunc("/api/admin/employees/unknown", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"NOT_FOUND","message":"employee not found"}}`)
	})
	// a 401 whose code is not INVALID_TOKEN must not trigger a refresh
	mux.HandleFunc("/api/admin/reports", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"INVALID_CREDENTIALS","message":"bad credentials"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := seededClient(t, server, nil)

	err := client.Get(context.Background(), "/api/admin/employees/unknown", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	err = client.Get(context.Background(), "/api/admin/reports", nil, nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeInvalidCredentials, apiErr.Code)
	assert.False(t, IsInvalidToken(err))

	assert.Equal(t, int32(0), refreshCalls.Load())
}

// A browser disconnect mid-refresh cancels only the disconnected request.
// The shared refresh still completes, the waiter succeeds with the new token
// and no forced logout fires.
func TestClient_InitiatorDisconnectDoesNotAbortSharedRefresh(t *testing.T) {
	var refreshCalls, invalidated atomic.Int32
	refreshStarted := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if refreshCalls.Add(1) == 1 {
			close(refreshStarted)
		}
		time.Sleep(300 * time.Millisecond)
		writeTokenPair(w, newAccess, newRefresh)
	})
	mux.HandleFunc("/api/admin/attendance/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+newAccess {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		writeInvalidToken(w)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, store := seededClient(t, server, &invalidated)

	initiatorCtx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	var initiatorErr, waiterErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		initiatorErr = client.Get(initiatorCtx, "/api/admin/attendance/events", nil, nil)
	}()

	<-refreshStarted
	wg.Add(1)
	go func() {
		defer wg.Done()
		waiterErr = client.Get(context.Background(), "/api/admin/attendance/events", nil, nil)
	}()
	cancel()
	wg.Wait()

	// only the disconnected request itself fails, on its own retry
	require.Error(t, initiatorErr)
	assert.NoError(t, waiterErr)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(0), invalidated.Load())

	pair, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, newAccess, pair.AccessToken)
	assert.Equal(t, newRefresh, pair.RefreshToken)
}

// Two near-simultaneous calls, a delayed refresh: one refresh request total,
// both originals succeed with the new token attached.
func TestClient_EndToEndConcurrentRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	var newTokenHits atomic.Int32
	arrived := make(chan struct{}, 2)
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, oldRefresh, body["refresh_token"])

		refreshCalls.Add(1)
		time.Sleep(150 * time.Millisecond)
		writeTokenPair(w, newAccess, newRefresh)
	})
	mux.HandleFunc("/api/admin/attendance/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+newAccess {
			newTokenHits.Add(1)
			fmt.Fprint(w, `{"data":[{"id":"ev-1"}]}`)
			return
		}
		arrived <- struct{}{}
		<-release
		writeInvalidToken(w)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := seededClient(t, server, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out struct {
				Data []struct {
					ID string `json:"id"`
				} `json:"data"`
			}
			errs[i] = client.Get(context.Background(), "/api/admin/attendance/events", nil, &out)
			if errs[i] == nil && len(out.Data) != 1 {
				errs[i] = fmt.Errorf("unexpected payload")
			}
		}(i)
	}

	<-arrived
	<-arrived
	close(release)
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), newTokenHits.Load())
}
