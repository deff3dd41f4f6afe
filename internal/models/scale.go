package models

import (
	"strings"
	"time"
)

// Scale is a reusable ordered list of grade options. Options are stored as a
// comma-separated list; a scale grade value is a 1-based index into it.
type Scale struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Options   string    `gorm:"type:text;not null" json:"options"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OptionList splits the stored options preserving their order.
func (s Scale) OptionList() []string {
	parts := strings.Split(s.Options, ",")
	options := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			options = append(options, trimmed)
		}
	}
	return options
}

// HasIndex reports whether the 1-based index refers to an option of the scale.
func (s Scale) HasIndex(index int) bool {
	return index >= 1 && index <= len(s.OptionList())
}

// Option returns the label for a 1-based index, or the empty string.
func (s Scale) Option(index int) string {
	options := s.OptionList()
	if index < 1 || index > len(options) {
		return ""
	}
	return options[index-1]
}
