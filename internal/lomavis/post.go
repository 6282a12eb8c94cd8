package lomavis

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/api"
	"github.com/lomavis/n8n-lomavis-go/internal/model"
)

type postCreateParams struct {
	ProfileGroupUUID string     `json:"profileGroupUuid" validate:"required"`
	Text             string     `json:"text"`
	PostStatus       flexInt    `json:"postStatus"`
	Platforms        stringList `json:"platformConfiguration"`
	AdditionalFields struct {
		CustomMetadata             opaque  `json:"customMetadataJson"`
		LinkedinDocumentTitle      string  `json:"linkedinDocumentTitle"`
		Media                      refList `json:"mediaCollection"`
		PlannedPublicationDatetime string  `json:"plannedPublicationDateTime"`
		VideoThumbnailUUID         string  `json:"videoThumbnailUuid"`
	} `json:"additionalFields"`
}

func (p postCreateParams) status() (PostStatus, error) {
	st := PostStatus(p.PostStatus.orNonZero(int(StatusDraft)))
	if st < StatusProposedByExternalUser || st > StatusReady {
		return 0, invalid("postStatus", fmt.Sprintf("unknown post status %d", st))
	}
	return st, nil
}

// PostCreate creates one post from the record's fields.
func (s *Service) PostCreate(ctx context.Context, rec Record) ([]Item, error) {
	var p postCreateParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}
	status, err := p.status()
	if err != nil {
		return nil, err
	}

	extra := p.AdditionalFields
	body := BuildPostBody(PostParams{
		ProfileGroupUUID:           p.ProfileGroupUUID,
		Text:                       p.Text,
		Status:                     status,
		Platforms:                  platformsOf(p.Platforms),
		MediaUUIDs:                 extra.Media,
		PlannedPublicationDatetime: extra.PlannedPublicationDatetime,
		VideoThumbnailUUID:         extra.VideoThumbnailUUID,
		LinkedinDocumentTitle:      extra.LinkedinDocumentTitle,
		CustomMetadata:             string(extra.CustomMetadata),
	})

	s.logger(rec, Key{ResourcePost, OpCreate}).WithFields(logrus.Fields{
		"profile_group": body.ProfileGroup,
		"post_status":   body.PostStatus,
		"media":         len(body.Media),
	}).Info("creating post")

	resp, err := s.api.Request(ctx, api.Call{
		Method: http.MethodPost,
		URL:    s.url(pathPosts),
		Query:  model.CreateQuery{OmitEmpty: true},
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return []Item{toItem(resp)}, nil
}

type postDeleteParams struct {
	UUID string `json:"uuid" validate:"required"`
}

// PostDelete deletes a post by uuid. The API usually answers with an empty body.
func (s *Service) PostDelete(ctx context.Context, rec Record) ([]Item, error) {
	var p postDeleteParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}
	if isBlank(p.UUID) {
		return nil, invalid("uuid", "is required")
	}

	resp, err := s.api.Request(ctx, api.Call{Method: http.MethodDelete, URL: s.url(pathPost(p.UUID))})
	if err != nil {
		return nil, err
	}
	return []Item{toItem(resp)}, nil
}

type postListByStatusParams struct {
	ProfileGroupUUID string `json:"profileGroupUuid" validate:"required"`
	Options          struct {
		PostStatus stringList `json:"postStatus"`
		Limit      flexInt    `json:"limit"`
	} `json:"options"`
}

// PostListByStatus lists the posts of a profile group, optionally filtered
// by one or more statuses.
func (s *Service) PostListByStatus(ctx context.Context, rec Record) ([]Item, error) {
	var p postListByStatusParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}

	q := model.PostListQuery{
		ProfileGroupUUID: p.ProfileGroupUUID,
		Limit:            p.Options.Limit.orNonZero(defaultPostLimit),
	}
	if len(p.Options.PostStatus) > 0 {
		q.PostStatus = strings.Join(p.Options.PostStatus, ",")
	}

	resp, err := s.api.Request(ctx, api.Call{Method: http.MethodGet, URL: s.url(pathPosts), Query: q})
	if err != nil {
		return nil, err
	}
	return toItems(resp), nil
}
