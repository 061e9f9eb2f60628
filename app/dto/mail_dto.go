package dto

// SignupRequest represents a public newsletter signup
type SignupRequest struct {
	Name  string `json:"name" validate:"max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// CreateBroadcastRequest carries a markdown document with a frontmatter block
type CreateBroadcastRequest struct {
	Markdown string `json:"markdown" validate:"required"`
}

// ValidateDocumentRequest carries a markdown document to check without queuing it
type ValidateDocumentRequest struct {
	Markdown string `json:"markdown"`
}

// BulkTagRequest attaches one tag to a list of contacts
type BulkTagRequest struct {
	Tag    string   `json:"tag" validate:"required,max=255"`
	Emails []string `json:"emails" validate:"required,min=1,max=10000,dive,required"`
}

// CommandResponse is the wire form of a command result
type CommandResponse struct {
	Success  bool           `json:"success"`
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Data     map[string]any `json:"data,omitempty"`
}
