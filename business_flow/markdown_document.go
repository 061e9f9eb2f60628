package businessflow

import (
	"strings"

	"github.com/amirphl/tailwind-mail/app/services"
	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/utils"
)

// frontmatterDelimiter opens and closes the metadata block
const frontmatterDelimiter = "---"

// Recognized frontmatter keys, matched case-insensitively
const (
	metaSubject   = "subject"
	metaSummary   = "summary"
	metaSlug      = "slug"
	metaSendToTag = "sendtotag"
)

// ParsedDocument is the structured form of a markdown email.
// Validity is decided once during parsing and carried with the value.
type ParsedDocument struct {
	Subject   string
	Summary   string
	Slug      string
	SendToTag string
	// HTML is nil when the document had no frontmatter block
	HTML     *string
	Markdown string

	valid bool
}

// IsValid reports whether the document has a subject, a summary and rendered HTML
func (d *ParsedDocument) IsValid() bool {
	return d != nil && d.valid
}

// ParseDocument splits markdown into frontmatter and body and renders the body.
// A document without two delimiters parses without error but is not valid.
func ParseDocument(markdown string, renderer services.MarkdownRenderer) (*ParsedDocument, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, ErrEmptyInput
	}

	doc := &ParsedDocument{Markdown: markdown}

	parts := strings.Split(markdown, frontmatterDelimiter)
	if len(parts) < 3 {
		return doc, nil
	}

	meta := parseFrontmatter(parts[1])
	doc.Subject = meta[metaSubject]
	doc.Summary = meta[metaSummary]
	doc.Slug = meta[metaSlug]
	doc.SendToTag = meta[metaSendToTag]

	if doc.SendToTag == "" {
		doc.SendToTag = models.SendToAll
	}
	if doc.Slug == "" {
		doc.Slug = utils.Slugify(doc.Subject)
	}

	body := strings.TrimSpace(strings.Join(parts[2:], frontmatterDelimiter))
	html, err := renderer.Render(body)
	if err != nil {
		return nil, err
	}
	doc.HTML = &html

	doc.valid = doc.Subject != "" && doc.Summary != "" && doc.HTML != nil
	return doc, nil
}

// parseFrontmatter reads "key: value" lines; the value keeps any further colons
func parseFrontmatter(block string) map[string]string {
	meta := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		switch key {
		case metaSubject, metaSummary, metaSlug, metaSendToTag:
			meta[key] = strings.TrimSpace(value)
		}
	}
	return meta
}
