package language

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// Preferences is an ordered poster-language preference list holding canonical
// ISO 639-1 base codes.
type Preferences []string

var separators = regexp.MustCompile(`[\s,]+`)

// ParsePreferences splits a comma or whitespace separated preference string
// and canonicalizes each entry through BCP 47 parsing, so "eng", "en-US" and
// "en" all collapse to "en". Entries that are not language codes are returned
// in dropped for the caller to report.
func ParsePreferences(raw string) (Preferences, []string) {
	var prefs Preferences
	var dropped []string
	seen := make(map[string]struct{})

	for _, token := range separators.Split(strings.TrimSpace(raw), -1) {
		if token == "" {
			continue
		}
		code, ok := canonical(token)
		if !ok {
			dropped = append(dropped, token)
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		prefs = append(prefs, code)
	}
	return prefs, dropped
}

// Pick returns the index of the first candidate matching the preference
// order, or -1 when no candidate matches. Candidates are compared on their
// canonical base code; empty candidates never match.
func (p Preferences) Pick(candidates []string) int {
	if len(p) == 0 || len(candidates) == 0 {
		return -1
	}
	bases := make([]string, len(candidates))
	for i, candidate := range candidates {
		if code, ok := canonical(candidate); ok {
			bases[i] = code
		}
	}
	for _, pref := range p {
		for i, base := range bases {
			if base != "" && base == pref {
				return i
			}
		}
	}
	return -1
}

// String renders the preference list for status output.
func (p Preferences) String() string {
	return strings.Join(p, ", ")
}

func canonical(token string) (string, bool) {
	base, err := language.ParseBase(strings.ToLower(strings.TrimSpace(token)))
	if err != nil {
		// Region-qualified tags like en-US are not bare bases; fall back to
		// full tag parsing before giving up.
		tag, tagErr := language.Parse(token)
		if tagErr != nil {
			return "", false
		}
		b, confidence := tag.Base()
		if confidence == language.No {
			return "", false
		}
		base = b
	}
	return base.String(), true
}
