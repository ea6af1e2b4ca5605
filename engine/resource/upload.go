package resource

import (
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxResumeBytes is the largest accepted resume.
const MaxResumeBytes int64 = 5 << 20

var (
	ErrResumeRequired = errors.New("resume is required")
	ErrFileTooLarge   = errors.New("file too large")
	ErrFileType       = errors.New("file type not allowed, use .pdf, .doc or .docx")
	ErrFileContent    = errors.New("file content does not match its extension")
)

// Upload is an in-memory file part. Size is the declared size and may be set
// without Data when the file was rejected before being read.
type Upload struct {
	Filename string
	Size     int64
	Data     []byte
}

// ContentType sniffs the media type of the data.
func (u *Upload) ContentType() string {
	return detectMIME(u.Data)
}

var resumeTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

// ValidateResume checks presence, size, extension and sniffed content type.
// limit falls back to MaxResumeBytes when not positive.
func ValidateResume(u *Upload, limit int64) error {
	if limit <= 0 {
		limit = MaxResumeBytes
	}
	if u == nil || u.Filename == "" {
		return ErrResumeRequired
	}
	size := max(u.Size, int64(len(u.Data)))
	if size > limit {
		return ErrFileTooLarge
	}
	if size == 0 {
		return ErrResumeRequired
	}
	allowed, ok := resumeTypes[strings.ToLower(filepath.Ext(u.Filename))]
	if !ok {
		return ErrFileType
	}
	if !slices.Contains(allowed, u.ContentType()) {
		return ErrFileContent
	}
	return nil
}

// detectMIME uses stdlib detection first and falls back to mimetype when the
// result is ambiguous. Parameters such as charset are dropped.
func detectMIME(head []byte) string {
	if len(head) == 0 {
		return "application/octet-stream"
	}
	mt := http.DetectContentType(head)
	if mt == "application/octet-stream" || mt == "application/zip" {
		mt = mimetype.Detect(head).String()
	}
	base, _, _ := strings.Cut(mt, ";")
	return strings.TrimSpace(base)
}
