package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	maxEmailLen    = 255
	maxPasswordLen = 255
	maxTitleLen    = 200
	maxArtistLen   = 100
	maxQueryLen    = 200
	maxURLLen      = 2048
	minYear        = 1900
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	upperPattern = regexp.MustCompile(`[A-Z]`)
	lowerPattern = regexp.MustCompile(`[a-z]`)
	digitPattern = regexp.MustCompile(`[0-9]`)

	// tagPattern matches any markup tag; the first group is the tag name.
	tagPattern = regexp.MustCompile(`(?i)</?\s*([a-z][a-z0-9]*)[^>]*>`)

	// queryStripPattern matches characters stripped from search queries.
	queryStripPattern = regexp.MustCompile("[<>\"'`;\\\\&]")
)

// allowedTextTags is the markup whitelist for free-text fields.
// Everything else is stripped, not escaped: text is sanitized for
// storage, not escaped for display.
var allowedTextTags = map[string]bool{
	"br": true, "p": true, "b": true, "i": true, "u": true,
}

// Email validates and normalizes an email address.
func Email(s string) Result[string] {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Err[string]("email is required")
	}
	if len(s) > maxEmailLen {
		return Err[string](fmt.Sprintf("email must be at most %d characters", maxEmailLen))
	}
	if !emailPattern.MatchString(s) {
		return Err[string]("email address is not valid")
	}
	return Ok(s)
}

// Password validates password strength: 8 to 255 characters with at
// least one uppercase letter, one lowercase letter, and one digit.
func Password(s string) Result[string] {
	if len(s) < 8 {
		return Err[string]("password must be at least 8 characters")
	}
	if len(s) > maxPasswordLen {
		return Err[string](fmt.Sprintf("password must be at most %d characters", maxPasswordLen))
	}
	if !upperPattern.MatchString(s) {
		return Err[string]("password must contain an uppercase letter")
	}
	if !lowerPattern.MatchString(s) {
		return Err[string]("password must contain a lowercase letter")
	}
	if !digitPattern.MatchString(s) {
		return Err[string]("password must contain a digit")
	}
	return Ok(s)
}

// MusicTitle validates a song or album title.
func MusicTitle(s string) Result[string] {
	s = strings.TrimSpace(stripAllTags(s))
	if s == "" {
		return Err[string]("title is required")
	}
	if len(s) > maxTitleLen {
		return Err[string](fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	return Ok(s)
}

// ArtistName validates an artist display name.
func ArtistName(s string) Result[string] {
	s = strings.TrimSpace(stripAllTags(s))
	if s == "" {
		return Err[string]("artist name is required")
	}
	if len(s) > maxArtistLen {
		return Err[string](fmt.Sprintf("artist name must be at most %d characters", maxArtistLen))
	}
	return Ok(s)
}

// Rating validates a 1-5 rating. An empty value is valid and yields a
// nil rating.
func Rating(s string) Result[*int] {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ok[*int](nil)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Err[*int]("rating must be a number")
	}
	if n < 1 || n > 5 {
		return Err[*int]("rating must be between 1 and 5")
	}
	return Ok(&n)
}

// URL validates an http or https URL.
func URL(s string) Result[string] {
	s = strings.TrimSpace(s)
	if s == "" {
		return Err[string]("URL is required")
	}
	if len(s) > maxURLLen {
		return Err[string](fmt.Sprintf("URL must be at most %d characters", maxURLLen))
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Err[string]("URL must start with http:// or https://")
	}
	return Ok(s)
}

// IntRange validates an integer within [min, max].
func IntRange(s string, min, max int) Result[int] {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Err[int]("value must be a number")
	}
	if n < min || n > max {
		return Err[int](fmt.Sprintf("value must be between %d and %d", min, max))
	}
	return Ok(n)
}

// FreeText sanitizes user prose for storage: all markup except a small
// whitelist (br, p, b, i, u) is stripped, and the result is capped at
// maxLen characters.
func FreeText(s string, maxLen int) Result[string] {
	s = strings.TrimSpace(stripDisallowedTags(s))
	if len(s) > maxLen {
		return Err[string](fmt.Sprintf("text must be at most %d characters", maxLen))
	}
	return Ok(s)
}

// SearchQuery strips characters with markup or quoting significance
// from a search query.
func SearchQuery(s string) Result[string] {
	s = strings.TrimSpace(queryStripPattern.ReplaceAllString(s, ""))
	if s == "" {
		return Err[string]("search query is required")
	}
	if len(s) > maxQueryLen {
		return Err[string](fmt.Sprintf("search query must be at most %d characters", maxQueryLen))
	}
	return Ok(s)
}

// Year validates a release year between 1900 and next year.
func Year(s string) Result[int] {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Err[int]("year must be a number")
	}
	max := time.Now().Year() + 1
	if n < minYear || n > max {
		return Err[int](fmt.Sprintf("year must be between %d and %d", minYear, max))
	}
	return Ok(n)
}

// IDList de-duplicates an id list, preserving order, and enforces a
// maximum count. Empty entries are dropped.
func IDList(ids []string, max int) Result[[]string] {
	seen := make(map[string]bool, len(ids))
	deduped := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}
	if len(deduped) == 0 {
		return Err[[]string]("at least one id is required")
	}
	if len(deduped) > max {
		return Err[[]string](fmt.Sprintf("at most %d ids are allowed", max))
	}
	return Ok(deduped)
}

// stripAllTags removes every markup tag.
func stripAllTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// stripDisallowedTags removes markup tags not in the whitelist.
func stripDisallowedTags(s string) string {
	return tagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		m := tagPattern.FindStringSubmatch(tag)
		if m != nil && allowedTextTags[strings.ToLower(m[1])] {
			return tag
		}
		return ""
	})
}
