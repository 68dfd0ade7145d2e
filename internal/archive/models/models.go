// Package models defines saved archive images.
package models

import (
	"encoding/json"
	"time"

	id "atelier/pkg/domain"
)

const (
	MaxTags      = 10
	MaxTagLength = 32
	MaxPromptLen = 4000
	// MaxImageBytes caps the decoded image kept in the archive.
	MaxImageBytes = 8 << 20
)

// Image is a generated picture the user chose to keep.
type Image struct {
	ID        id.ImageID      `json:"id"`
	UserID    id.UserID       `json:"-"`
	Data      string          `json:"data"`
	MimeType  string          `json:"mime_type"`
	Prompt    string          `json:"prompt"`
	Config    json.RawMessage `json:"config,omitempty"`
	Tags      []string        `json:"tags"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaveRequest is the body of POST /api/archive.
type SaveRequest struct {
	Data     string          `json:"data"`
	MimeType string          `json:"mime_type"`
	Prompt   string          `json:"prompt"`
	Config   json.RawMessage `json:"config,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
}

type ListResponse struct {
	Images []*Image `json:"images"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
