package lomavis

import (
	"context"
	"fmt"
	"strings"
)

type mediaUploadParams struct {
	ProfileGroupUUID   string          `json:"profileGroupUuid" validate:"required"`
	BinaryPropertyName string          `json:"binaryPropertyName"`
	AdditionalFields   UploadOverrides `json:"additionalFields"`
}

// MediaUpload uploads the record's binary property and returns the new media uuid.
func (s *Service) MediaUpload(ctx context.Context, rec Record) ([]Item, error) {
	var p mediaUploadParams
	if err := decodeParams(rec.Params, &p); err != nil {
		return nil, err
	}
	property := strings.TrimSpace(p.BinaryPropertyName)
	if property == "" {
		property = "data"
	}
	if rec.Binary == nil {
		return nil, invalid("binaryPropertyName", fmt.Sprintf("item has no binary data (looked for %q)", property))
	}
	a, err := rec.Binary.Binary(property)
	if err != nil {
		return nil, invalid("binaryPropertyName", err.Error())
	}

	meta := ResolveUploadMetadata(a, p.AdditionalFields)
	uuid, err := s.Upload(ctx, p.ProfileGroupUUID, a, meta, s.logger(rec, Key{ResourceMedia, OpUpload}))
	if err != nil {
		return nil, err
	}
	return []Item{{"media_uuid": uuid, "success": true}}, nil
}
