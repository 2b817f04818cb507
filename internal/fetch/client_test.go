package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testClient(apiKey string) *Client {
	return New(Config{
		Timeout:   5 * time.Second,
		UserAgent: "creto-votes-test/1.0",
		APIKey:    apiKey,
	}, nil)
}

func TestGetRetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	body, err := testClient("").Get(context.Background(), srv.URL, nil, DefaultPolicy(3, time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, "payload", string(body))
	require.Equal(t, int32(3), calls.Load())
}

func TestGetExhaustsRetriesAndSurfacesLastError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient("").Get(context.Background(), srv.URL, nil, DefaultPolicy(3, time.Millisecond))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Code)
	require.Equal(t, int32(3), calls.Load())
}

func TestGetAuthFailsImmediately(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient("").Get(context.Background(), srv.URL, nil, DefaultPolicy(5, time.Millisecond))
	require.True(t, IsAuthError(err))
	require.Equal(t, int32(1), calls.Load(), "auth failures must not be retried")
}

func TestGetNotFoundIsSentinelWithoutRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	_, err := testClient("").Get(context.Background(), srv.URL, nil, DefaultPolicy(5, time.Millisecond))
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetOtherClientErrorsFailImmediately(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	_, err := testClient("").Get(context.Background(), srv.URL, nil, DefaultPolicy(5, time.Millisecond))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusGone, se.Code)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetSetsUserAgent(t *testing.T) {
	t.Parallel()

	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, err := testClient("").Get(context.Background(), srv.URL, nil, NoRetry())
	require.NoError(t, err)
	require.Equal(t, "creto-votes-test/1.0", ua.Load())
}

func TestGetJSONAppendsGatewayParams(t *testing.T) {
	t.Parallel()

	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		w.Write([]byte(`{"members":[{"bioguideId":"W000802"}]}`))
	}))
	defer srv.Close()

	var out struct {
		Members []struct {
			BioguideID string `json:"bioguideId"`
		} `json:"members"`
	}
	params := url.Values{"limit": []string{"250"}}
	err := testClient("gateway-secret").GetJSON(context.Background(), srv.URL, params, NoRetry(), &out)
	require.NoError(t, err)
	require.Len(t, out.Members, 1)
	require.Equal(t, "W000802", out.Members[0].BioguideID)

	q, ok := query.Load().(url.Values)
	require.True(t, ok)
	require.Equal(t, "json", q.Get("format"))
	require.Equal(t, "gateway-secret", q.Get("api_key"))
	require.Equal(t, "250", q.Get("limit"))
}

func TestGetJSONOmitsAPIKeyWhenUnset(t *testing.T) {
	t.Parallel()

	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient("").GetJSON(context.Background(), srv.URL, nil, NoRetry(), &out)
	require.NoError(t, err)

	q, ok := query.Load().(url.Values)
	require.True(t, ok)
	require.Empty(t, q.Get("api_key"))
}

func TestGetXML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<doc><value>7</value></doc>`))
	}))
	defer srv.Close()

	var out struct {
		Value int `xml:"value"`
	}
	require.NoError(t, testClient("").GetXML(context.Background(), srv.URL, NoRetry(), &out))
	require.Equal(t, 7, out.Value)
}

func TestGetXMLMalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<doc><unclosed>`))
	}))
	defer srv.Close()

	var out struct{}
	err := testClient("").GetXML(context.Background(), srv.URL, NoRetry(), &out)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestGetTransportErrorRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	srv.Close() // connection refused from here on

	_, err := testClient("").Get(context.Background(), srv.URL, nil, DefaultPolicy(2, time.Millisecond))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}
