package lomavis

// Platform is a social network identifier as the API spells it.
type Platform string

const (
	Facebook                Platform = "facebook"
	Google                  Platform = "google"
	Instagram               Platform = "instagram"
	LinkedinBusinessPage    Platform = "linkedin_business_page"
	LinkedinPersonalAccount Platform = "linkedin_personal_account"
	Pinterest               Platform = "pinterest"
	TiktokBusinessPage      Platform = "tiktok_business_page"
	Twitter                 Platform = "twitter"
	Youtube                 Platform = "youtube"
)

// Platforms lists every platform the API knows about.
var Platforms = [...]Platform{
	Facebook,
	Google,
	Instagram,
	LinkedinBusinessPage,
	LinkedinPersonalAccount,
	Pinterest,
	TiktokBusinessPage,
	Twitter,
	Youtube,
}

type PostStatus int

const (
	StatusProposedByExternalUser PostStatus = 1
	StatusDraft                  PostStatus = 2
	StatusWaitingForApproval     PostStatus = 3
	StatusReady                  PostStatus = 4
)

type StepMode int

const (
	SingleStep StepMode = 1
	MultiStep  StepMode = 2
)

type ApprovalRule int

const (
	AllUsersMustApprove ApprovalRule = 1
	AnyUserCanApprove   ApprovalRule = 2
)

// FileType is the coarse media category sent with an upload.
type FileType int

const (
	FileTypeImage    FileType = 1
	FileTypeVideo    FileType = 2
	FileTypeDocument FileType = 3
)

// MimeCode is the API's numeric content type.
type MimeCode int

const DefaultMimeCode MimeCode = 1

type mimeInfo struct {
	mime     string
	fileType FileType
}

var mimeByCode = map[MimeCode]mimeInfo{
	1: {"image/jpeg", FileTypeImage},
	2: {"image/png", FileTypeImage},
	3: {"video/mp4", FileTypeVideo},
	4: {"video/quicktime", FileTypeVideo},
	5: {"application/pdf", FileTypeDocument},
	6: {"image/svg+xml", FileTypeImage},
}

var codeByMime = func() map[string]MimeCode {
	m := make(map[string]MimeCode, len(mimeByCode))
	for code, info := range mimeByCode {
		m[info.mime] = code
	}
	return m
}()

// MimeString returns the canonical MIME type for code.
func (c MimeCode) MimeString() (string, bool) {
	info, ok := mimeByCode[c]
	return info.mime, ok
}

// FileType returns the category code falls into.
func (c MimeCode) FileType() (FileType, bool) {
	info, ok := mimeByCode[c]
	return info.fileType, ok
}

// LookupMimeCode maps a MIME type to its numeric code.
func LookupMimeCode(mime string) (MimeCode, bool) {
	c, ok := codeByMime[mime]
	return c, ok
}
