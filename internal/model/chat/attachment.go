package chat

import "errors"

// MaxAttachmentBytes caps staged images at 5 MiB.
const MaxAttachmentBytes = 5 * 1024 * 1024

var (
	ErrUnsupportedImageType = errors.New("attachment must be a JPEG or PNG image")
	ErrAttachmentTooLarge   = errors.New("attachment exceeds the 5 MiB limit")
)

// allowedImageTypes lists the MIME types the advisory endpoint accepts.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// PendingAttachment is a user-selected image awaiting the next submit. At
// most one is staged at a time; it is consumed on send or explicit removal.
type PendingAttachment struct {
	Name      string
	MIMEType  string
	SizeBytes int64
	Data      []byte
}

// ValidateAttachment enforces type and size limits at selection time, before
// anything is staged. Violations never reach the transcript.
func ValidateAttachment(mimeType string, sizeBytes int64) error {
	if !allowedImageTypes[mimeType] {
		return ErrUnsupportedImageType
	}
	if sizeBytes > MaxAttachmentBytes {
		return ErrAttachmentTooLarge
	}
	return nil
}
