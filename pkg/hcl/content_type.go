package hcl

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	// ContentTypeHCL is the custom MIME type for HCL configuration
	ContentTypeHCL = "application/vnd.hcl"

	// ContentTypeJSON is the standard MIME type for JSON
	ContentTypeJSON = "application/json"
)

// DetectContentType determines if the content is JSON or HCL based on the
// Content-Type header and, failing that, on the body itself. The body is
// left readable.
func DetectContentType(r *http.Request) (string, error) {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch mediaType {
			case ContentTypeHCL:
				return ContentTypeHCL, nil
			case ContentTypeJSON:
				return ContentTypeJSON, nil
			}
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' && IsHCL(trimmed) {
		return ContentTypeHCL, nil
	}
	return ContentTypeJSON, nil
}

// IsHCLBasedOnExtension checks if the filename has an HCL extension
func IsHCLBasedOnExtension(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hcl")
}
