// Package catalog extracts and classifies game entries from a rendered
// store page. All heuristics live in data-driven lists so site-specific
// tuning never touches the extraction logic.
package catalog

// DefaultLinkSelectors is the prioritized cascade of CSS selectors used
// to find candidate game links. Evaluated left to right; the first
// selector that yields accepted candidates wins, with a broad all-anchors
// scan as the final fallback.
var DefaultLinkSelectors = []string{
	"a[href*='/games/store/']",
	"div.m-product-placement-item a[href]",
	"article a[href*='/games/']",
	"div[role='article'] a[href]",
	"a[class*='game'][href]",
	"div[class*='GameCard'] a[href]",
}

// invalidURLPatterns mark navigation and category links that share the
// /games/ path shape but are not game detail pages.
var invalidURLPatterns = []string{
	"?xr=shellnav",
	"?xr=footnav",
	"/games/all-games",
	"/games/xbox-play-anywhere",
	"/games/free-to-play",
	"/games/optimized",
	"/games/backward-compatibility",
	"/games/ea-play",
	"developer.microsoft.com",
	"game-pass",
}

// invalidNames are navigation labels rejected on exact match.
var invalidNames = map[string]struct{}{
	"all games":              {},
	"all items":              {},
	"xbox anywhere":          {},
	"free to play":           {},
	"optimized":              {},
	"backward compatibility": {},
	"store":                  {},
	"games for developers":   {},
	"explore":                {},
	"browse":                 {},
	"learn more":             {},
	"get the app":            {},
	"download":               {},
	"upgrade":                {},
	"show more":              {},
	"load more":              {},
	"see more":               {},
	"play fortnite":          {},
}

// shortNavPrefixes reject names only when the whole name is short,
// so "Store" alone fails but "Storyteller's Store" survives.
var shortNavPrefixes = []string{
	"store",
	"explore",
	"browse",
	"learn more",
	"get the app",
}

// navKeywords reject names that open with an action-button phrase.
var navKeywords = []string{
	"learn more",
	"explore,",
	"browse,",
	"get the app",
	"download the app",
	"upgrade to",
	"buy ",
	"shop ",
}

// navPrefixes are stripped from the front of raw names before cleaning.
var navPrefixes = []string{
	"learn more,",
	"learn more",
	"explore,",
	"explore",
}

// tierTokens are subscription-tier words that never belong to a title.
var tierTokens = []string{"ULTIMATE", "PREMIUM", "ESSENTIAL"}

// skipTexts disqualify an element's own text as a name source.
var skipTexts = []string{
	"EXPLORE",
	"LEARN MORE",
	"GET THE APP",
	"DOWNLOAD",
	"UPGRADE",
	"SHOW MORE",
	"LOAD MORE",
	"SEE MORE",
}

// slugSuffixes are platform/edition tails stripped from URL-derived names.
var slugSuffixes = []string{
	" Xbox Series X S Version",
	" Xbox One",
	" Windows Edition",
	" Game Preview",
	" Standard Edition",
	" Console",
}

// nestedNameTags is the probe order for finding a title inside a link.
var nestedNameTags = []string{"h2", "h3", "h4", "span", "div"}
