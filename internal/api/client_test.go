package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomavis/n8n-lomavis-go/internal/model"
)

// rewriteTransport redirects all HTTP requests to a local httptest server,
// so absolute API URLs can be exercised unchanged.
type rewriteTransport struct {
	base   http.RoundTripper
	target string // e.g., "http://127.0.0.1:PORT"
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(rt.target, "http://")
	return rt.base.RoundTrip(req)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger, _ := test.NewNullLogger()
	httpClient := &http.Client{Transport: rewriteTransport{base: http.DefaultTransport, target: srv.URL}}
	return NewClient(httpClient, "secret-key", logrus.NewEntry(logger))
}

func TestRequest_AuthQueryAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/lomavis_publishing_api/v1/multiplatformsocialmediaposts/", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("omitEmpty"))
		assert.Equal(t, "Token secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["text"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"uuid":"p1","text":"hello"}`))
	})

	got, err := c.Request(context.Background(), Call{
		Method: http.MethodPost,
		URL:    "https://app.lomavis.com/lomavis_publishing_api/v1/multiplatformsocialmediaposts/",
		Query:  model.CreateQuery{OmitEmpty: true},
		Body:   map[string]any{"text": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"uuid": "p1", "text": "hello"}, got)
}

func TestRequest_QueryStruct(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "pg1", q.Get("profile_group_uuid"))
		assert.Equal(t, "2,4", q.Get("post_status"))
		assert.Equal(t, "25", q.Get("limit"))
		w.Write([]byte(`[{"uuid":"a"},{"uuid":"b"}]`))
	})

	got, err := c.Request(context.Background(), Call{
		Method: http.MethodGet,
		URL:    "https://app.lomavis.com/lomavis_publishing_api/v1/multiplatformsocialmediaposts/",
		Query:  model.PostListQuery{ProfileGroupUUID: "pg1", PostStatus: "2,4", Limit: 25},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRequest_EmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	got, err := c.Request(context.Background(), Call{Method: http.MethodDelete, URL: "https://example.test/x/"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRequest_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"text":["This field may not be blank."]}`))
	})

	_, err := c.Request(context.Background(), Call{Method: http.MethodPost, URL: "https://example.test/posts/", Body: map[string]any{}})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "text: This field may not be blank.", apiErr.Message)
	assert.Equal(t, map[string]any{"text": []any{"This field may not be blank."}}, apiErr.Payload())
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestRequest_UnsupportedMethod(t *testing.T) {
	c := NewClient(nil, "k", nil)
	_, err := c.Request(context.Background(), Call{Method: "BREW", URL: "https://example.test/"})
	assert.ErrorContains(t, err, "unsupported method")

	_, err = c.Request(context.Background(), Call{Method: http.MethodGet, URL: "https://example.test/", Query: 42})
	assert.ErrorContains(t, err, "encode query")
}

func TestRequest_TransportError(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
	c := NewClient(httpClient, "k", nil)

	_, err := c.Request(context.Background(), Call{Method: http.MethodGet, URL: "https://example.test/"})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRawRequest_NoAuthAndExactBody(t *testing.T) {
	payload := []byte("binary-video-bytes")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "video/mp4", r.Header.Get("Content-Type"))
		assert.Equal(t, "sig", r.URL.Query().Get("X-Goog-Signature"))
		assert.EqualValues(t, len(payload), r.ContentLength)
		got, _ := io.ReadAll(r.Body)
		assert.Equal(t, payload, got)
		w.WriteHeader(http.StatusOK)
	})

	h := http.Header{}
	h.Set("Content-Type", "video/mp4")
	err := c.RawRequest(context.Background(), http.MethodPut, "https://storage.example.test/bucket/obj?X-Goog-Signature=sig", h, payload)
	require.NoError(t, err)
}

func TestRawRequest_Forbidden(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`SignatureDoesNotMatch`))
	})

	err := c.RawRequest(context.Background(), http.MethodPut, "https://storage.example.test/obj", nil, []byte("x"))
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "SignatureDoesNotMatch", apiErr.Message)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
