package dto

import (
	"fmt"
	"mime/multipart"
	"strings"
)

// UploadRequest represents a spreadsheet upload
type UploadRequest struct {
	File   *multipart.FileHeader
	Strict bool
}

// Validate performs basic validation on the request
func (r *UploadRequest) Validate(maxSize int64) error {
	if r.File == nil {
		return ErrNoFile
	}

	filename := strings.ToLower(r.File.Filename)
	if !strings.HasSuffix(filename, ".xlsx") && !strings.HasSuffix(filename, ".xls") {
		return fmt.Errorf("invalid file type. Supported: XLSX, XLS")
	}
	if maxSize > 0 && r.File.Size > maxSize {
		return fmt.Errorf("file exceeds %d bytes", maxSize)
	}
	return nil
}
