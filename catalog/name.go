package catalog

import (
	"strings"
)

// CleanName strips navigation prefixes and subscription-tier noise from
// a raw display string, keeping the first line that plausibly is a
// title. Returns "" when nothing title-like survives.
func CleanName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}

	for _, prefix := range navPrefixes {
		if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			name = strings.TrimSpace(strings.TrimPrefix(name, ","))
			break
		}
	}
	if lower := strings.ToLower(name); strings.HasPrefix(lower, "explore ") {
		name = strings.TrimSpace(name[len("explore "):])
	}

	var kept []string
	for _, line := range strings.Split(name, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isTierLine(line) {
			continue
		}
		// Lines this long are description text, not a title.
		if len(line) > 100 {
			continue
		}
		if isPureNavLine(line) {
			continue
		}
		kept = append(kept, line)
	}

	for _, line := range kept {
		if len(line) > 3 && len(line) < 100 && !isShortTierText(line) {
			return line
		}
	}

	// Tier text glued onto the title with a separator dot.
	if strings.Contains(name, "·") {
		for _, part := range strings.Split(name, "·") {
			part = strings.TrimSpace(part)
			if part == "" || containsTierToken(part) {
				continue
			}
			if len(part) > 3 && len(part) < 100 {
				return part
			}
		}
	}

	// Last resort: the longest surviving line of the original text.
	best := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 5 || len(line) >= 100 {
			continue
		}
		if containsTierToken(line) && len(line) < 25 {
			continue
		}
		if len(line) > len(best) {
			best = line
		}
	}
	return best
}

// NameFromSlug derives a display name from a store URL slug:
// hyphens become spaces, words are title-cased, and known
// platform/edition suffixes are stripped.
func NameFromSlug(slug string) string {
	name := titleCase(strings.ReplaceAll(slug, "-", " "))
	for _, suffix := range slugSuffixes {
		name = strings.ReplaceAll(name, suffix, "")
	}
	return strings.TrimSpace(name)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func isTierLine(line string) bool {
	upper := strings.ToUpper(line)
	for _, token := range append([]string{"PC", "CONSOLE"}, tierTokens...) {
		if strings.Contains(upper, token) {
			if strings.Contains(line, "·") || len(line) < 15 {
				return true
			}
		}
	}
	return false
}

func isPureNavLine(line string) bool {
	switch strings.ToUpper(line) {
	case "LEARN MORE", "EXPLORE", "BROWSE", "STORE":
		return true
	}
	return false
}

func isShortTierText(line string) bool {
	return len(line) < 20 && containsTierToken(line)
}

func containsTierToken(s string) bool {
	upper := strings.ToUpper(s)
	for _, token := range tierTokens {
		if strings.Contains(upper, token) {
			return true
		}
	}
	return false
}
