package lomavis

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/api"
	"github.com/lomavis/n8n-lomavis-go/internal/attachment"
	"github.com/lomavis/n8n-lomavis-go/internal/model"
)

// UploadOverrides are user-supplied values that beat what was detected on
// the attachment. Unset or unparseable fields fall through.
type UploadOverrides struct {
	FileName           string   `json:"fileName"`
	FileNameAlt        string   `json:"file_name"`
	MimeTypeString     string   `json:"mimeTypeString"`
	MimeType           string   `json:"mimeType"`
	MimeTypeCode       flexInt  `json:"mimeTypeCode"`
	FileType           flexInt  `json:"fileType"`
	FileSize           flexInt  `json:"fileSize"`
	FileSizeInBytes    flexInt  `json:"fileSizeInBytes"`
	FileHeight         flexInt  `json:"fileHeight"`
	Height             flexInt  `json:"height"`
	FileWidth          flexInt  `json:"fileWidth"`
	Width              flexInt  `json:"width"`
	MediaLibraryUpload flexBool `json:"mediaLibraryUpload"`
	MediaLibraryAlt    flexBool `json:"media_library_upload"`
	PreviewImageUpload flexBool `json:"previewImageUpload"`
	PreviewImageAlt    flexBool `json:"preview_image_upload"`
}

// UploadMetadata is the resolved description of one upload.
type UploadMetadata struct {
	FileName       string
	FileSize       int64
	Width          int
	Height         int
	MimeCode       MimeCode
	MimeString     string
	FileType       FileType
	StoreInLibrary bool
	PreviewOnly    bool
}

// ResolveUploadMetadata merges the detected attachment properties with the
// overrides. MIME types outside the API's table fall back to image/jpeg.
func ResolveUploadMetadata(a *attachment.Attachment, o UploadOverrides) UploadMetadata {
	m := UploadMetadata{
		FileName: firstNonBlank(o.FileName, o.FileNameAlt, a.FileName, "upload"),
	}

	code := MimeCode(0)
	if o.MimeTypeCode.Set {
		code = MimeCode(o.MimeTypeCode.Value)
	} else if mime := firstNonBlank(o.MimeTypeString, o.MimeType, a.MimeType); mime != "" {
		code, _ = LookupMimeCode(mime)
	}
	mime, ok := code.MimeString()
	if !ok {
		code = DefaultMimeCode
		mime, _ = code.MimeString()
	}
	m.MimeCode, m.MimeString = code, mime

	if o.FileType.Set {
		m.FileType = FileType(o.FileType.Value)
	} else {
		m.FileType, _ = code.FileType()
	}

	m.FileSize = int64(len(a.Data))
	if a.FileSize > 0 {
		m.FileSize = a.FileSize
	}
	if size, ok := firstSet(o.FileSize, o.FileSizeInBytes); ok {
		m.FileSize = int64(size)
	}

	m.Height, m.Width = a.Height, a.Width
	if h, ok := firstSet(o.FileHeight, o.Height); ok {
		m.Height = h
	}
	if w, ok := firstSet(o.FileWidth, o.Width); ok {
		m.Width = w
	}

	m.StoreInLibrary = firstBool(true, o.MediaLibraryUpload, o.MediaLibraryAlt)
	m.PreviewOnly = firstBool(false, o.PreviewImageUpload, o.PreviewImageAlt)
	return m
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstSet(vals ...flexInt) (int, bool) {
	for _, v := range vals {
		if v.Set {
			return v.Value, true
		}
	}
	return 0, false
}

func firstBool(def bool, vals ...flexBool) bool {
	for _, v := range vals {
		if v.Set {
			return v.Value
		}
	}
	return def
}

// uploadSession lives for exactly one upload.
type uploadSession struct {
	uuid       string
	uploadURL  string
	confirmURL string
	headers    map[string]any
}

// SignedUploadHeaders builds the headers for the signed-URL PUT: whatever the
// API handed out, a Content-Type taken from the first variant present (or the
// resolved MIME type), and the exact payload length.
func SignedUploadHeaders(raw map[string]any, fallbackMime string, size int) http.Header {
	h := make(http.Header, len(raw)+2)
	for k, v := range raw {
		h.Set(k, fmt.Sprint(v))
	}

	contentType := fallbackMime
	for _, key := range []string{"Content-Type", "content-type", "x-goog-meta-content-type"} {
		if v, ok := raw[key]; ok && v != nil && fmt.Sprint(v) != "" {
			contentType = fmt.Sprint(v)
			break
		}
	}
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(size))
	return h
}

// Upload runs the three upload calls in order: initiate, PUT the bytes to
// the signed URL, confirm. Nothing is retried and a failure part way leaves
// the initiated upload unconfirmed.
func (s *Service) Upload(ctx context.Context, profileGroupUUID string, a *attachment.Attachment, meta UploadMetadata, log *logrus.Entry) (string, error) {
	session, err := s.initiateUpload(ctx, model.MediaUploadReq{
		ProfileGroup:       profileGroupUUID,
		Filename:           meta.FileName,
		ContentType:        int(meta.MimeCode),
		FilesizeInBytes:    meta.FileSize,
		Height:             meta.Height,
		Width:              meta.Width,
		FileType:           int(meta.FileType),
		MediaLibraryUpload: meta.StoreInLibrary,
		PreviewImageUpload: meta.PreviewOnly,
	})
	if err != nil {
		return "", fmt.Errorf("initiate upload: %w", err)
	}
	log = log.WithField("media", session.uuid)
	log.WithFields(logrus.Fields{
		"file": meta.FileName,
		"mime": meta.MimeString,
		"size": humanize.Bytes(uint64(len(a.Data))),
	}).Info("upload initiated")

	headers := SignedUploadHeaders(session.headers, meta.MimeString, len(a.Data))
	if err := s.raw.RawRequest(ctx, http.MethodPut, session.uploadURL, headers, a.Data); err != nil {
		return "", fmt.Errorf("transfer upload: %w", err)
	}

	if _, err := s.api.Request(ctx, api.Call{
		Method: http.MethodPut,
		URL:    session.confirmURL,
		Body:   model.MediaConfirmReq{Success: true},
	}); err != nil {
		return "", fmt.Errorf("confirm upload: %w", err)
	}
	log.Info("upload confirmed")
	return session.uuid, nil
}

func (s *Service) initiateUpload(ctx context.Context, req model.MediaUploadReq) (*uploadSession, error) {
	resp, err := s.api.Request(ctx, api.Call{
		Method: http.MethodPost,
		URL:    s.url(pathMedia),
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   req,
	})
	if err != nil {
		return nil, err
	}

	obj := toItem(resp)
	session := &uploadSession{
		uuid:       stringField(obj, "uuid"),
		uploadURL:  stringField(obj, "url"),
		confirmURL: stringField(obj, "confirm_url"),
	}
	if h, ok := obj["headers"].(map[string]any); ok {
		session.headers = h
	}
	return session, nil
}
