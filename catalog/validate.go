package catalog

import (
	"strings"
)

const storePathMarker = "/games/store/"

// NormalizeStoreURL collapses locale-prefixed store paths onto the
// canonical /games/store/ shape so dedupe keys agree across variants.
func NormalizeStoreURL(href string) string {
	return strings.Replace(href, "/en-us/games/store/", storePathMarker, 1)
}

// storeSlugID splits a store URL into its slug and identifier segments.
func storeSlugID(href string) (slug, id string, ok bool) {
	_, after, found := strings.Cut(href, storePathMarker)
	if !found {
		return "", "", false
	}
	after, _, _ = strings.Cut(after, "?")
	after, _, _ = strings.Cut(after, "#")
	slug, id, found = strings.Cut(after, "/")
	if !found || slug == "" {
		return "", "", false
	}
	id = strings.TrimSuffix(id, "/")
	return slug, id, true
}

// IsValidGame reports whether href and name describe a real game detail
// entry rather than navigation or decoration. The reason names the first
// failed rule, for debug logging and metrics.
func IsValidGame(href, name string) (bool, string) {
	if href == "" || name == "" {
		return false, "empty"
	}

	lowerHref := strings.ToLower(href)
	for _, pattern := range invalidURLPatterns {
		if strings.Contains(lowerHref, pattern) {
			return false, "url_pattern"
		}
	}

	trimmed := strings.TrimSuffix(href, "/")
	if strings.HasSuffix(trimmed, "/games/store") {
		return false, "bare_store_url"
	}
	if !strings.Contains(href, storePathMarker) {
		return false, "not_store_url"
	}
	_, id, ok := storeSlugID(href)
	if !ok {
		return false, "missing_id"
	}
	if len(id) < 3 || len(id) > 60 {
		return false, "id_length"
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))
	if _, bad := invalidNames[nameLower]; bad {
		return false, "nav_name"
	}
	for _, prefix := range shortNavPrefixes {
		if strings.HasPrefix(nameLower, prefix) && len(name) < 15 {
			return false, "nav_prefix"
		}
	}
	if len(name) < 2 || len(name) > 150 {
		return false, "name_length"
	}
	for _, keyword := range navKeywords {
		if strings.Contains(nameLower, keyword) {
			head, _, _ := strings.Cut(keyword, ",")
			if strings.HasPrefix(nameLower, head) {
				return false, "nav_keyword"
			}
		}
	}
	// Tier text with no actual title attached.
	if containsTierToken(name) && len(name) < 20 &&
		(strings.Contains(name, "·") || strings.Contains(strings.ToUpper(name), "PC")) {
		return false, "tier_only"
	}

	return true, ""
}
