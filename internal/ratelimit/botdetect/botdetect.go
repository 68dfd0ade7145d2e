// Package botdetect flags automated clients by user agent. Guests running
// scripted clients would otherwise drain the shared allowance.
package botdetect

import (
	"strings"

	"github.com/mssola/useragent"
)

// automationMarkers catches HTTP libraries and headless browsers that the
// user agent parser does not classify as bots.
var automationMarkers = []string{
	"headlesschrome",
	"phantomjs",
	"python-requests",
	"python-urllib",
	"aiohttp",
	"go-http-client",
	"okhttp",
	"axios/",
	"node-fetch",
	"curl/",
	"wget/",
	"httpie/",
	"scrapy",
	"libwww-perl",
	"java/",
}

// IsCrawler reports whether ua belongs to a crawler or script. An empty
// user agent is treated as automated.
func IsCrawler(ua string) bool {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return true
	}
	if useragent.New(ua).Bot() {
		return true
	}
	lower := strings.ToLower(ua)
	for _, marker := range automationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
