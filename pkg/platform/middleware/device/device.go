// Package device turns raw User-Agent headers into short display labels
// recorded alongside admin actions.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns a "<Browser> on <OS>" label. Unparseable parts fall
// back to "Unknown".
func ParseUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown"
	}

	platform := ua.OS()
	if ua.Mobile() && strings.Contains(userAgent, "iPhone") {
		platform = "iPhone"
	}
	if platform == "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown"
	}

	return strings.TrimSpace(browser + " on " + platform)
}
