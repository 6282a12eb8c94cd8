package lomavis

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/api"
	"github.com/lomavis/n8n-lomavis-go/internal/model"
)

const (
	defaultProfileGroupLimit = 25
	defaultPostLimit         = 25
	defaultCompetitorLimit   = 50
)

type profileGroupListParams struct {
	Limit flexInt `json:"limit"`
}

// ProfileGroupList fetches profile groups. An array response yields one
// record per group.
func (s *Service) ProfileGroupList(ctx context.Context, rec Record) ([]Item, error) {
	var p profileGroupListParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}

	resp, err := s.api.Request(ctx, api.Call{
		Method: http.MethodGet,
		URL:    s.url(pathProfileGroups),
		Query:  model.ProfileGroupQuery{Limit: p.Limit.or(defaultProfileGroupLimit)},
	})
	if err != nil {
		return nil, err
	}
	return toItems(resp), nil
}

type profileGroupSearchParams struct {
	Options struct {
		Email string  `json:"email"`
		Name  string  `json:"name"`
		Limit flexInt `json:"limit"`
	} `json:"options"`
}

// ProfileGroupSearch filters profile groups by email and/or name and returns
// the paginated envelope as a single record.
func (s *Service) ProfileGroupSearch(ctx context.Context, rec Record) ([]Item, error) {
	var p profileGroupSearchParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}

	q := model.ProfileGroupQuery{
		Limit: p.Options.Limit.orNonZero(defaultProfileGroupLimit),
		Email: strings.TrimSpace(p.Options.Email),
		Name:  strings.TrimSpace(p.Options.Name),
	}
	url := s.url(pathProfileGroups)
	log := s.logger(rec, Key{ResourceProfileGroup, OpSearch})
	log.WithFields(logrus.Fields{"url": url, "query": q}).Info("profile group search request")

	resp, err := s.api.Request(ctx, api.Call{Method: http.MethodGet, URL: url, Query: q})
	if err != nil {
		return nil, err
	}

	item := toItem(resp)
	log.WithField("count", item["count"]).Info("profile group search response")
	return []Item{item}, nil
}
