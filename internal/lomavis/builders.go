package lomavis

import (
	"strings"

	"github.com/lomavis/n8n-lomavis-go/internal/model"
)

// PlatformConfiguration returns the API's platform flag map: every known
// platform present, true iff selected.
func PlatformConfiguration(selected []Platform) map[string]bool {
	out := make(map[string]bool, len(Platforms))
	for _, p := range Platforms {
		out[string(p)] = false
	}
	for _, p := range selected {
		if _, known := out[string(p)]; known {
			out[string(p)] = true
		}
	}
	return out
}

func hasLinkedin(platforms []Platform) bool {
	for _, p := range platforms {
		if p == LinkedinBusinessPage || p == LinkedinPersonalAccount {
			return true
		}
	}
	return false
}

// Refs drops blank ids and wraps the rest, keeping order. The result is
// never nil so it always encodes as an array.
func Refs(ids []string) []model.Ref {
	out := make([]model.Ref, 0, len(ids))
	for _, id := range ids {
		if isBlank(id) {
			continue
		}
		out = append(out, model.Ref{UUID: id})
	}
	return out
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

type PostParams struct {
	ProfileGroupUUID           string
	Text                       string
	Status                     PostStatus
	Platforms                  []Platform
	MediaUUIDs                 []string
	PlannedPublicationDatetime string
	VideoThumbnailUUID         string
	LinkedinDocumentTitle      string
	CustomMetadata             string
}

// BuildPostBody assembles the create-post payload.
//
// A ready post always carries planned_publication_datetime, null meaning
// "publish now"; other statuses carry it only when a time was given. The
// LinkedIn document title is dropped unless a LinkedIn platform is selected.
func BuildPostBody(p PostParams) model.PostBody {
	body := model.PostBody{
		ProfileGroup:          p.ProfileGroupUUID,
		Text:                  p.Text,
		PostStatus:            int(p.Status),
		PlatformConfiguration: PlatformConfiguration(p.Platforms),
		Media:                 Refs(p.MediaUUIDs),
	}

	switch {
	case !isBlank(p.PlannedPublicationDatetime):
		body.PlannedPublicationDatetime = model.Some(p.PlannedPublicationDatetime)
	case p.Status == StatusReady:
		body.PlannedPublicationDatetime = model.Null[string]()
	}

	if !isBlank(p.VideoThumbnailUUID) {
		body.VideoThumbnail = &model.Ref{UUID: p.VideoThumbnailUUID}
	}
	if !isBlank(p.CustomMetadata) {
		body.CustomMetadata = p.CustomMetadata
	}
	if !isBlank(p.LinkedinDocumentTitle) && hasLinkedin(p.Platforms) {
		body.LinkedinDocumentTitle = p.LinkedinDocumentTitle
	}
	return body
}

type ApprovalParams struct {
	PostUUID   string
	StepMode   StepMode
	Step1Users []string
	Step1Rule  ApprovalRule
	Step2Users []string
	Step2Rule  ApprovalRule // zero leaves the rule out
}

// BuildApprovalBody assembles the approval-process payload. Step 2 keys are
// only emitted when at least one non-blank step 2 approver remains.
func BuildApprovalBody(p ApprovalParams) model.ApprovalBody {
	body := model.ApprovalBody{
		MultiplatformSocialMediaPost: p.PostUUID,
		ApprovalStep1Users:           Refs(p.Step1Users),
		ApprovalStep1UsersRule:       int(p.Step1Rule),
		StepMode:                     int(p.StepMode),
	}
	if step2 := Refs(p.Step2Users); len(step2) > 0 {
		body.ApprovalStep2Users = step2
		if p.Step2Rule != 0 {
			rule := int(p.Step2Rule)
			body.ApprovalStep2UsersRule = &rule
		}
	}
	return body
}
