package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLanguage(t *testing.T) {
	for _, ok := range []string{"en", "uk", "pt-BR", "zh-Hant"} {
		assert.True(t, ValidateLanguage(ok), ok)
	}
	for _, bad := range []string{"", "E", "english!", "en_US"} {
		assert.False(t, ValidateLanguage(bad), bad)
	}
}

func TestValidateNickname(t *testing.T) {
	assert.True(t, ValidateNickname("pixel_smith"))
	assert.False(t, ValidateNickname("ab"))
	assert.False(t, ValidateNickname("has space"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"model.zip":            "model.zip",
		"../../etc/passwd":     "passwd",
		`C:\tmp\my file.blend`: "my_file.blend",
		"...":                  "file",
		"":                     "file",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hel\x00lo "))
}
