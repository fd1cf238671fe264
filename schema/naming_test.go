package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user_story", "UserStory"},
		{"isbn-13", "Isbn13"},
		{"name", "Name"},
		{"display_id", "DisplayId"},
		{"PersonName", "PersonName"},
		{"a", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToPascalCase(tt.input))
		})
	}
}

func TestToPascalCaseAcronyms(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"display_id", "DisplayID"},
		{"external_url", "ExternalURL"},
		{"name", "Name"},
		{"Id", "ID"},
		{"raw_json", "RawJSON"},
		{"ApiKey", "ApiKey"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToPascalCaseAcronyms(tt.input))
		})
	}
}
