package usecase

import (
	"strings"

	"roadgenie/internal/domain"
)

// Trigger phrases the system instruction asks the model to emit. Detected as
// case-insensitive substrings of the raw response text.
const (
	routeTrigger = "new route suggested"
	pinTrigger   = "dropping a pin"
)

// extraction is everything the map-action decider needs from one AI reply.
type extraction struct {
	tags    []domain.LocationTag
	start   *domain.LocationTag // first START tag, nil if absent
	end     *domain.LocationTag // first END tag, nil if absent
	cleaned string              // reply text with all recognized tags removed

	routeSuggested bool
	pinRequested   bool
}

// extractTags scans AI response text for bracketed location markers of the
// form "[KEYWORD: name]" with KEYWORD one of START, END or LOCATION
// (case-insensitive) and name the shortest run up to the closing bracket.
// Recognized tags are stripped from the cleaned text; anything that does not
// parse as a tag is left in place verbatim. When a kind occurs more than
// once, the first occurrence is authoritative but later ones are still
// stripped so they never reach the user.
func extractTags(text string) extraction {
	ex := extraction{
		routeSuggested: containsFold(text, routeTrigger),
		pinRequested:   containsFold(text, pinTrigger),
	}

	var cleaned strings.Builder
	cleaned.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] != '[' {
			cleaned.WriteByte(text[i])
			i++
			continue
		}
		tag, width, ok := scanTag(text[i:])
		if !ok {
			cleaned.WriteByte(text[i])
			i++
			continue
		}
		ex.tags = append(ex.tags, tag)
		switch tag.Kind {
		case domain.TagStart:
			if ex.start == nil {
				t := tag
				ex.start = &t
			}
		case domain.TagEnd:
			if ex.end == nil {
				t := tag
				ex.end = &t
			}
		}
		i += width
	}

	ex.cleaned = strings.TrimSpace(cleaned.String())
	return ex
}

// scanTag attempts to parse one tag at the start of s, which must begin with
// '['. It returns the tag and the number of bytes consumed.
func scanTag(s string) (domain.LocationTag, int, bool) {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return domain.LocationTag{}, 0, false
	}
	kind, ok := tagKind(s[1:colon])
	if !ok {
		return domain.LocationTag{}, 0, false
	}

	closing := strings.IndexByte(s[colon:], ']')
	if closing < 0 {
		return domain.LocationTag{}, 0, false
	}
	name := strings.TrimSpace(s[colon+1 : colon+closing])
	if name == "" {
		return domain.LocationTag{}, 0, false
	}
	return domain.LocationTag{Kind: kind, Name: name}, colon + closing + 1, true
}

func tagKind(keyword string) (domain.TagKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(keyword)) {
	case string(domain.TagStart):
		return domain.TagStart, true
	case string(domain.TagEnd):
		return domain.TagEnd, true
	case string(domain.TagLocation):
		return domain.TagLocation, true
	}
	return "", false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
