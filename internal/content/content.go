package content

import (
	"bytes"
	"errors"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	policy        = bluemonday.UGCPolicy()
	markdown      = goldmark.New()
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// RenderMarkdown converts message text to HTML and strips anything unsafe
// from the result. Stored text stays untouched; rendering happens on read.
func RenderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		// Fall back to escaped plain text.
		return template.HTMLEscapeString(text)
	}
	return policy.Sanitize(buf.String())
}

// ValidateUsername checks if the username contains only allowed characters
// (alphanumeric, dot, dash, underscore) and is not empty.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username cannot be empty")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username contains invalid characters (allowed: alphanumeric, dot, dash, underscore)")
	}
	return nil
}

// ValidateCallType accepts the two relayed call kinds.
func ValidateCallType(callType string) error {
	if callType != "audio" && callType != "video" {
		return errors.New("callType must be audio or video")
	}
	return nil
}
