package lomavis

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/api"
	"github.com/lomavis/n8n-lomavis-go/internal/model"
)

type competitorListParams struct {
	ProfileGroupUUID string `json:"profileGroupUuid" validate:"required"`
	Options          struct {
		Limit  flexInt `json:"limit"`
		Offset flexInt `json:"offset"`
	} `json:"options"`
}

// CompetitorList returns the competitors of a profile group, pagination
// envelope included (count, next, previous, results).
func (s *Service) CompetitorList(ctx context.Context, rec Record) ([]Item, error) {
	var p competitorListParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}

	q := model.CompetitorQuery{
		ProfileGroupUUID: p.ProfileGroupUUID,
		Limit:            p.Options.Limit.orNonZero(defaultCompetitorLimit),
		Offset:           p.Options.Offset.or(0),
	}
	url := s.url(pathCompetitors)
	log := s.logger(rec, Key{ResourceCompetitor, OpList})
	log.WithFields(logrus.Fields{"url": url, "query": q}).Info("competitor list request")

	resp, err := s.api.Request(ctx, api.Call{Method: http.MethodGet, URL: url, Query: q})
	if err != nil {
		return nil, err
	}

	item := toItem(resp)
	fields := logrus.Fields{"has_results": item["results"] != nil}
	if results, ok := item["results"].([]any); ok {
		fields["result_count"] = len(results)
	}
	log.WithFields(fields).Info("competitor list response")
	return []Item{item}, nil
}
