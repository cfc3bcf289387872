// src/security/validation/file_validation.go
package validation

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/username/spendlens/src/logger"
)

// sniffLen is how much of a file is inspected for binary content.
const sniffLen = 4096

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // Often used for CSV by older Excel
	"text/plain":               true,
	"application/octet-stream": true, // Browsers send this for unknown extensions; content is inspected anyway
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": false,
	"application/pdf": false,
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if allowed, exists := AllowedClientContentTypes[mediaType]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: file type '%s' is not a statement export", ErrValidationFailed, contentType)
	}
	return nil
}

// IsBinaryContent reports whether buf looks like a binary file rather than
// delimited text: it holds a NUL or another control byte that never appears in
// text. Bytes that are not valid UTF-8 are allowed; single-byte encodings such
// as Windows-1252 are still text.
func IsBinaryContent(buf []byte) bool {
	for _, b := range buf {
		if isBinaryByte(b) {
			return true
		}
	}
	return false
}

// isBinaryByte matches the control bytes http.DetectContentType treats as binary.
func isBinaryByte(b byte) bool {
	return b <= 0x08 || b == 0x0B || (b >= 0x0E && b <= 0x1A) || (b >= 0x1C && b <= 0x1F)
}

// ValidateTextContent rejects content that is not text. Empty content is
// accepted; it simply holds no rows.
func ValidateTextContent(content []byte) error {
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if len(head) == 0 {
		return nil
	}
	if IsBinaryContent(head) {
		logger.L.Warn("File rejected: binary content detected in statement file")
		return fmt.Errorf("file appears to be binary, not a text statement export")
	}
	detected := strings.ToLower(strings.Split(http.DetectContentType(head), ";")[0])
	if !strings.HasPrefix(detected, "text/") && detected != "application/octet-stream" {
		logger.L.Warn("File rejected: disallowed detected content type", "detectedContentType", detected)
		return fmt.Errorf("detected file content type '%s' is not allowed", detected)
	}
	return nil
}

// ValidateUploadContent inspects the start of an uploaded file and rewinds it
// so the caller can read it from the beginning.
func ValidateUploadContent(file io.ReadSeeker) error {
	if file == nil {
		return fmt.Errorf("file is nil")
	}
	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read file for content type checking: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file read pointer: %w", err)
	}
	return ValidateTextContent(buffer[:n])
}
