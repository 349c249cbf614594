package services

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	defaultVideoMIMEType = "video/mp4"
	genericMIMEType      = "application/octet-stream"
)

// videoMIMETypes maps lower-case file extensions to the MIME type sent to the model.
var videoMIMETypes = map[string]string{
	".mp4":   "video/mp4",
	".m4v":   "video/mp4",
	".mov":   "video/quicktime",
	".qt":    "video/quicktime",
	".webm":  "video/webm",
	".mpeg":  "video/mpeg",
	".mpg":   "video/mpeg",
	".3gp":   "video/3gpp",
	".3gpp":  "video/3gpp",
	".3g2":   "video/3gpp2",
	".3gpp2": "video/3gpp2",
}

// ResolveVideoMIMEType picks the MIME type for an upload. The client's type
// wins unless it is empty or generic; then the file extension decides, falling
// back to video/mp4.
func ResolveVideoMIMEType(contentType, filename string) string {
	if ct := baseMediaType(contentType); ct != "" && ct != genericMIMEType {
		return ct
	}

	if mt, ok := videoMIMETypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return defaultVideoMIMEType
}

// baseMediaType strips parameters such as "; codecs=avc1".
func baseMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
