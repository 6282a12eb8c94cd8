// Package lomavis turns workflow records into Lomavis publishing API calls:
// payload builders, one executor per (resource, operation), the media upload
// sequence and the dispatch registry.
package lomavis

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/api"
)

// AuthenticatedRequester performs one call with the account's credentials.
type AuthenticatedRequester interface {
	Request(ctx context.Context, call api.Call) (any, error)
}

// RawRequester performs one call without credentials; used for signed URLs.
type RawRequester interface {
	RawRequest(ctx context.Context, method, url string, header http.Header, body []byte) error
}

type Service struct {
	api     AuthenticatedRequester
	raw     RawRequester
	baseURL string
	log     *logrus.Entry
}

func NewService(authed AuthenticatedRequester, raw RawRequester, baseURL string, log *logrus.Entry) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{api: authed, raw: raw, baseURL: baseURL, log: log}
}

func (s *Service) url(path string) string { return joinURL(s.baseURL, path) }

func (s *Service) logger(rec Record, key Key) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"resource":  key.Resource,
		"operation": key.Operation,
		"item":      rec.Index,
	})
}

// toItem wraps a decoded response as one output record.
func toItem(v any) Item {
	switch t := v.(type) {
	case map[string]any:
		return Item(t)
	case nil:
		return Item{}
	}
	return Item{"data": v}
}

// toItems flattens an array response; anything else becomes one record.
func toItems(v any) []Item {
	arr, ok := v.([]any)
	if !ok {
		return []Item{toItem(v)}
	}
	out := make([]Item, 0, len(arr))
	for _, el := range arr {
		out = append(out, toItem(el))
	}
	return out
}

func stringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}
