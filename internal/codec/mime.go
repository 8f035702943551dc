package codec

import (
	"path"
	"strings"
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogg":  "video/ogg",
	"json": "application/json",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"html": "text/html",
	"xml":  "application/xml",
}

// ContentType infers a MIME type from the file extension.
func ContentType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsText reports whether files with this name travel as raw text rather than
// base64 on the adapter surface.
func IsText(name string) bool {
	ct := ContentType(name)
	return strings.HasPrefix(ct, "text/") || ct == "application/json" || ct == "application/xml"
}
