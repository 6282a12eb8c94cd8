package lomavis

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/api"
)

// approvalFields are shared by sendApproval and createDraftAndSendApproval.
// Step 2 settings live in additionalFields and are only read in multi-step mode.
type approvalFields struct {
	StepMode   flexInt `json:"stepMode"`
	Step1Users refList `json:"approvalStep1Users"`
	Step1Rule  flexInt `json:"approvalStep1UsersRule"`
}

type step2Fields struct {
	Step2Users refList `json:"approvalStep2Users"`
	Step2Rule  flexInt `json:"approvalStep2UsersRule"`
}

func (a approvalFields) params(postUUID string, step2 step2Fields) ApprovalParams {
	p := ApprovalParams{
		PostUUID:   postUUID,
		StepMode:   StepMode(a.StepMode.orNonZero(int(SingleStep))),
		Step1Users: a.Step1Users,
		Step1Rule:  ApprovalRule(a.Step1Rule.orNonZero(int(AllUsersMustApprove))),
	}
	if p.StepMode == MultiStep {
		p.Step2Users = step2.Step2Users
		p.Step2Rule = ApprovalRule(step2.Step2Rule.orNonZero(int(AllUsersMustApprove)))
	}
	return p
}

type sendApprovalParams struct {
	PostUUID string `json:"postUuid"`
	approvalFields
	AdditionalFields step2Fields `json:"additionalFields"`
}

// PostSendApproval starts an approval process for an existing post.
//
// Unlike PostCreateDraftAndSendApproval it does not insist on step 1
// approvers; an empty list is passed through for the API to judge.
func (s *Service) PostSendApproval(ctx context.Context, rec Record) ([]Item, error) {
	var p sendApprovalParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}
	body := BuildApprovalBody(p.params(p.PostUUID, p.AdditionalFields))

	url := s.url(pathApprovalProcesses)
	log := s.logger(rec, Key{ResourcePost, OpSendApproval})
	log.WithFields(logrus.Fields{"url": url, "body": body}).Info("send approval request")

	resp, err := s.api.Request(ctx, api.Call{Method: http.MethodPost, URL: url, Body: body})
	if err != nil {
		return nil, err
	}

	item := toItem(resp)
	log.WithField("uuid", item["uuid"]).Info("send approval response")
	return []Item{item}, nil
}

type createDraftParams struct {
	ProfileGroupUUID string     `json:"profileGroupUuid" validate:"required"`
	Text             string     `json:"text"`
	Platforms        stringList `json:"platformConfiguration"`
	approvalFields
	AdditionalFields struct {
		step2Fields
		CustomMetadata             opaque  `json:"customMetadata"`
		LinkedinDocumentTitle      string  `json:"linkedinDocumentTitle"`
		Media                      refList `json:"mediaCollection"`
		PlannedPublicationDatetime string  `json:"plannedPublicationDatetime"`
		VideoThumbnailUUID         string  `json:"videoThumbnailUuid"`
	} `json:"additionalFields"`
}

// checkApprovers checks the approver lists. It runs before any request so a
// rejected record never leaves a draft without an approval process behind.
func (p createDraftParams) checkApprovers() error {
	if len(Refs(p.Step1Users)) == 0 {
		return invalid("approvalStep1Users", "at least one Step 1 approver is required")
	}
	if StepMode(p.StepMode.orNonZero(int(SingleStep))) == MultiStep && len(Refs(p.AdditionalFields.Step2Users)) == 0 {
		return invalid("approvalStep2Users", "at least one Step 2 approver is required for multi-step approval")
	}
	return nil
}

// PostCreateDraftAndSendApproval creates a draft post and then an approval
// process for it. The result merges both responses; approval keys win.
//
// If the approval call fails the draft stays behind; the record is still
// reported as failed.
func (s *Service) PostCreateDraftAndSendApproval(ctx context.Context, rec Record) ([]Item, error) {
	var p createDraftParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}
	if err := p.checkApprovers(); err != nil {
		return nil, err
	}

	extra := p.AdditionalFields
	postBody := BuildPostBody(PostParams{
		ProfileGroupUUID:           p.ProfileGroupUUID,
		Text:                       p.Text,
		Status:                     StatusDraft,
		Platforms:                  platformsOf(p.Platforms),
		MediaUUIDs:                 extra.Media,
		PlannedPublicationDatetime: extra.PlannedPublicationDatetime,
		VideoThumbnailUUID:         extra.VideoThumbnailUUID,
		LinkedinDocumentTitle:      extra.LinkedinDocumentTitle,
		CustomMetadata:             string(extra.CustomMetadata),
	})

	log := s.logger(rec, Key{ResourcePost, OpCreateDraftAndSendApproval})
	postResp, err := s.api.Request(ctx, api.Call{Method: http.MethodPost, URL: s.url(pathPosts), Body: postBody})
	if err != nil {
		return nil, err
	}
	post := toItem(postResp)
	postUUID := stringField(post, "uuid")
	log.WithField("post", postUUID).Info("draft created")

	approvalBody := BuildApprovalBody(p.params(postUUID, extra.step2Fields))
	approvalResp, err := s.api.Request(ctx, api.Call{Method: http.MethodPost, URL: s.url(pathApprovalProcesses), Body: approvalBody})
	if err != nil {
		log.WithError(err).WithField("post", postUUID).Warn("approval failed after draft was created")
		return nil, err
	}

	merged := make(Item, len(post))
	for k, v := range post {
		merged[k] = v
	}
	for k, v := range toItem(approvalResp) {
		merged[k] = v
	}
	return []Item{merged}, nil
}
