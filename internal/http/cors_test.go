package http

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateCORSMiddleware_Disabled(t *testing.T) {
	middleware := createCORSMiddleware(false, "https://example.com", corsTestLogger())
	assert.Nil(t, middleware)
}

func TestCreateCORSMiddleware_EnabledWithoutOrigins(t *testing.T) {
	middleware := createCORSMiddleware(true, "", corsTestLogger())
	assert.Nil(t, middleware)
}

func TestCreateCORSMiddleware_EnabledWithOrigins(t *testing.T) {
	middleware := createCORSMiddleware(true, "https://example.com,https://other.example.com", corsTestLogger())
	assert.NotNil(t, middleware)
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single origin", input: "https://example.com", expected: []string{"https://example.com"}},
		{
			name:     "multiple origins with whitespace",
			input:    " https://a.example.com , https://b.example.com ",
			expected: []string{"https://a.example.com", "https://b.example.com"},
		},
		{name: "only commas", input: ",,,", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origins := parseOrigins(tt.input)
			if tt.expected == nil {
				assert.Nil(t, origins)
				return
			}
			assert.Equal(t, tt.expected, origins)
		})
	}
}
