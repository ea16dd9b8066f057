package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the publishing state of a content item.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// Statuses lists the valid statuses in display order.
var Statuses = []Status{StatusDraft, StatusPublished, StatusArchived}

// ParseStatus accepts any casing of a known status. ok is false otherwise.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Statuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// Content is an item as returned by the remote content API.
type Content struct {
	// ID is assigned by the server; zero means "not created yet".
	ID int64 `json:"id"`

	Title  string `json:"title"`
	Desc   string `json:"desc"`
	Status Status `json:"status"`

	// Author is the username of the owner. It never changes after creation.
	Author string `json:"author"`

	DateCreated Timestamp  `json:"dateCreated"`
	DateUpdated *Timestamp `json:"dateUpdated,omitempty"`
}

// Input returns the editable part of the item.
func (c Content) Input() ContentInput {
	return ContentInput{Title: c.Title, Desc: c.Desc, Status: c.Status}
}

// ContentInput is the request body for create and update calls.
type ContentInput struct {
	Title  string `json:"title" validate:"notblank"`
	Desc   string `json:"desc" validate:"notblank"`
	Status Status `json:"status,omitempty" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// Timestamp is a time.Time that also accepts the zone-less ISO-8601 layouts
// many back ends emit for local date-times.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
