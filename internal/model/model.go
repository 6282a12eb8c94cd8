package model

import "encoding/json"

// Nullable is a body field that can be absent, explicitly null or set.
// Pair it with the `omitzero` tag so an unset value drops the key.
type Nullable[T any] struct {
	Value T
	Valid bool // false marshals as null
	Set   bool // false omits the key
}

func Some[T any](v T) Nullable[T] { return Nullable[T]{Value: v, Valid: true, Set: true} }
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

func (n Nullable[T]) IsZero() bool { return !n.Set }

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ref is the single-key {"uuid": ...} reference used for media, thumbnails and users.
type Ref struct {
	UUID string `json:"uuid"`
}

// --- POST /multiplatformsocialmediaposts/ ---

type PostBody struct {
	ProfileGroup               string           `json:"profile_group"`
	Text                       string           `json:"text"`
	PostStatus                 int              `json:"post_status"`
	PlatformConfiguration      map[string]bool  `json:"platform_configuration"`
	Media                      []Ref            `json:"media"`
	PlannedPublicationDatetime Nullable[string] `json:"planned_publication_datetime,omitzero"`
	VideoThumbnail             *Ref             `json:"video_thumbnail,omitempty"`
	CustomMetadata             string           `json:"custom_metadata,omitempty"`
	LinkedinDocumentTitle      string           `json:"linkedin_document_title,omitempty"`
}

// --- POST /approvalprocesses/ ---

type ApprovalBody struct {
	MultiplatformSocialMediaPost string `json:"multiplatform_social_media_post"`
	ApprovalStep1Users           []Ref  `json:"approval_step_1_users"`
	ApprovalStep1UsersRule       int    `json:"approval_step_1_users_rule"`
	StepMode                     int    `json:"step_mode"`
	ApprovalStep2Users           []Ref  `json:"approval_step_2_users,omitempty"`
	ApprovalStep2UsersRule       *int   `json:"approval_step_2_users_rule,omitempty"`
}

// --- POST /media/ (initiate), PUT confirm_url ---

type MediaUploadReq struct {
	ProfileGroup       string `json:"profile_group"`
	Filename           string `json:"filename"`
	ContentType        int    `json:"content_type"`
	FilesizeInBytes    int64  `json:"filesize_in_bytes"`
	Height             int    `json:"height"`
	Width              int    `json:"width"`
	FileType           int    `json:"file_type"`
	MediaLibraryUpload bool   `json:"media_library_upload"`
	PreviewImageUpload bool   `json:"preview_image_upload"`
}

type MediaConfirmReq struct {
	Success bool `json:"success"`
}

// --- query strings ---

type ProfileGroupQuery struct {
	Limit int    `url:"limit"`
	Email string `url:"email,omitempty"`
	Name  string `url:"name,omitempty"`
}

type PostListQuery struct {
	ProfileGroupUUID string `url:"profile_group_uuid"`
	PostStatus       string `url:"post_status,omitempty"`
	Limit            int    `url:"limit"`
}

type CompetitorQuery struct {
	ProfileGroupUUID string `url:"profile_group_uuid"`
	Limit            int    `url:"limit"`
	Offset           int    `url:"offset"`
}

type CreateQuery struct {
	OmitEmpty bool `url:"omitEmpty"`
}
