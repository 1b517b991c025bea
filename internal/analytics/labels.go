package analytics

import (
	"regexp"
	"strings"
)

// ParseUserAgent extracts browser and device labels from a User-Agent string.
func ParseUserAgent(ua string) (browser, device string) {
	ua = strings.ToLower(ua)

	// more specific patterns first: Edge and Opera UAs also contain "chrome"
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		browser = "Opera"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}

	// iPad UAs contain "mobile"
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		device = "Tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android"):
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return
}

var botMarkers = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"yandex", "baidu", "facebookexternalhit", "headless", "lighthouse",
}

// IsBot reports whether the User-Agent looks like a crawler.
func IsBot(ua string) bool {
	ua = strings.ToLower(ua)
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

var referrerHost = regexp.MustCompile(`^https?://(?:www\.)?([^/:?#]+)`)

var searchEngines = []struct{ marker, name string }{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"github.", "GitHub"},
}

// CleanReferrer reduces a referrer URL to a label: a known engine name, the
// bare host, or "Direct" when empty.
func CleanReferrer(ref string) string {
	if strings.TrimSpace(ref) == "" {
		return "Direct"
	}
	lower := strings.ToLower(ref)
	for _, se := range searchEngines {
		if strings.Contains(lower, se.marker) {
			return se.name
		}
	}
	if m := referrerHost.FindStringSubmatch(lower); len(m) > 1 {
		return m[1]
	}
	return "Other"
}
