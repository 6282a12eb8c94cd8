// Package attachment resolves the binary payloads carried by input items.
package attachment

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathNotAllowed is returned when a spec points at a local file but the
// caller only accepts inline data.
var ErrPathNotAllowed = errors.New("attachment: file paths are not allowed here")

// Spec is how an item describes a binary property: inline base64 data or a
// local file path, with optional metadata that wins over detection.
type Spec struct {
	Data     []byte `json:"data,omitempty"`
	Path     string `json:"path,omitempty"`
	FileName string `json:"fileName,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Attachment is a resolved binary payload. Zero numeric fields mean unknown.
type Attachment struct {
	Data     []byte
	FileName string
	MimeType string
	FileSize int64
	Width    int
	Height   int
}

// Resolve loads the payload and fills in whatever metadata can be detected.
func Resolve(spec Spec, allowPaths bool) (*Attachment, error) {
	a := &Attachment{
		Data:     spec.Data,
		FileName: spec.FileName,
		MimeType: spec.MimeType,
		FileSize: spec.FileSize,
		Width:    spec.Width,
		Height:   spec.Height,
	}

	if spec.Path != "" {
		if !allowPaths {
			return nil, ErrPathNotAllowed
		}
		if err := ensureFile(spec.Path); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(spec.Path)
		if err != nil {
			return nil, err
		}
		a.Data = b
		if a.FileName == "" {
			a.FileName = filepath.Base(spec.Path)
		}
	}
	if a.Data == nil {
		return nil, errors.New("attachment: no data")
	}

	if a.MimeType == "" {
		a.MimeType = detectMime(a.FileName, a.Data)
	}
	if a.Width == 0 && a.Height == 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(a.Data)); err == nil {
			a.Width, a.Height = cfg.Width, cfg.Height
		}
	}
	return a, nil
}

func ensureFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	return nil
}

// detectMime prefers the file extension and falls back to content sniffing.
func detectMime(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".pdf":
		return "application/pdf"
	case ".svg":
		return "image/svg+xml"
	}
	if ext := filepath.Ext(name); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return stripParams(t)
		}
	}
	return stripParams(http.DetectContentType(data))
}

func stripParams(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}
