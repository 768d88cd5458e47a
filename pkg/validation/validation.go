package validation

import (
	"regexp"
	"strings"
)

var (
	languageRegex = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)
	nicknameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	unsafeFileRe  = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// ValidateLanguage accepts BCP 47 style locale codes such as "en", "uk" or "pt-BR".
func ValidateLanguage(code string) bool {
	return languageRegex.MatchString(strings.TrimSpace(code))
}

// ValidateNickname validates nickname format
func ValidateNickname(nickname string) bool {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) < 3 || len(nickname) > 30 {
		return false
	}
	return nicknameRegex.MatchString(nickname)
}

// SanitizeString removes potentially harmful characters
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	return strings.ReplaceAll(input, "\x00", "")
}

// SanitizeFilename reduces a client supplied file name to a safe object key segment.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeFileRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}
