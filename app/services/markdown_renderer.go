// Package services provides technical collaborators of the mail pipeline: rendering, keys, tokens and dispatch
package services

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownRenderer turns markdown text into sanitized HTML
type MarkdownRenderer interface {
	Render(markdown string) (string, error)
}

// MarkdownRendererImpl renders with goldmark and sanitizes with bluemonday
type MarkdownRendererImpl struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewMarkdownRenderer creates a renderer with GitHub flavored markdown.
// Raw HTML in the source is dropped by goldmark and whatever survives is passed through the UGC policy.
func NewMarkdownRenderer() MarkdownRenderer {
	return &MarkdownRendererImpl{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts markdown to HTML and strips executable content
func (r *MarkdownRendererImpl) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}
