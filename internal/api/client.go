// Package api performs HTTP calls against the Lomavis publishing API.
//
// Authenticated calls carry "Authorization: Token <apiKey>"; the signed media
// upload URL is called without credentials.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/sling"
	"github.com/google/go-querystring/query"
	"github.com/sirupsen/logrus"
)

// Call describes one authenticated request. URL is absolute.
type Call struct {
	Method string
	URL    string
	Query  any // go-querystring tagged struct
	Header map[string]string
	Body   any // JSON encoded when non-nil
}

type Client struct {
	authed *sling.Sling
	raw    *sling.Sling
	log    *logrus.Entry
}

func NewClient(httpClient *http.Client, apiKey string, log *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	raw := sling.New().Client(httpClient).ResponseDecoder(bodyDecoder{})
	authed := raw.New().
		Set("Authorization", "Token "+apiKey).
		Set("Accept", "application/json")
	return &Client{authed: authed, raw: raw, log: log}
}

// Request performs an authenticated call and returns the decoded JSON
// response (nil for an empty body). Non-2xx responses and transport
// failures come back as *Error.
func (c *Client) Request(ctx context.Context, call Call) (any, error) {
	target := call.URL
	if call.Query != nil {
		v, err := query.Values(call.Query)
		if err != nil {
			return nil, fmt.Errorf("encode query for %s: %w", call.URL, err)
		}
		if len(v) > 0 {
			target += "?" + v.Encode()
		}
	}
	s, err := withMethod(c.authed.New(), call.Method, target)
	if err != nil {
		return nil, err
	}
	for k, v := range call.Header {
		s = s.Set(k, v)
	}
	if call.Body != nil {
		s = s.BodyJSON(call.Body)
	}

	body, err := c.do(ctx, s, call.Method, target)
	if err != nil {
		return nil, err
	}
	return decodeJSON(body), nil
}

// RawRequest sends body to url without credentials.
func (c *Client) RawRequest(ctx context.Context, method, url string, header http.Header, body []byte) error {
	s, err := withMethod(c.raw.New(), method, url)
	if err != nil {
		return err
	}
	s = s.Body(bytes.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			s = s.Set(k, v)
		}
	}
	_, err = c.do(ctx, s, method, url)
	return err
}

func withMethod(s *sling.Sling, method, url string) (*sling.Sling, error) {
	switch method {
	case http.MethodGet:
		return s.Get(url), nil
	case http.MethodPost:
		return s.Post(url), nil
	case http.MethodPut:
		return s.Put(url), nil
	case http.MethodPatch:
		return s.Patch(url), nil
	case http.MethodDelete:
		return s.Delete(url), nil
	}
	return nil, fmt.Errorf("unsupported method %q", method)
}

func (c *Client) do(ctx context.Context, s *sling.Sling, method, url string) ([]byte, error) {
	req, err := s.Request()
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	req = req.WithContext(ctx)

	start := time.Now()
	var success, failure []byte
	resp, err := s.Do(req, &success, &failure)
	if err != nil && resp == nil {
		c.log.WithError(err).WithFields(logrus.Fields{"method": method, "url": req.URL.String()}).Warn("lomavis request failed")
		return nil, &Error{Method: method, URL: req.URL.String(), Message: err.Error(), Err: err}
	}

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Debug("lomavis request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(method, req.URL.String(), resp, failure)
	}
	if err != nil {
		return nil, &Error{Method: method, URL: req.URL.String(), StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}
	return success, nil
}

// bodyDecoder hands the raw body back so failures can be diagnosed and
// non-JSON bodies survive.
type bodyDecoder struct{}

func (bodyDecoder) Decode(resp *http.Response, v interface{}) error {
	dst, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("bodyDecoder: unsupported target %T", v)
	}
	b, err := io.ReadAll(resp.Body)
	*dst = b
	return err
}

func decodeJSON(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}
