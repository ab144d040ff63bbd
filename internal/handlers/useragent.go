package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"hotspotgate/internal/i18n"
	"hotspotgate/internal/models"

	"github.com/mssola/useragent"
)

var (
	reAndroid      = regexp.MustCompile(`Android`)
	reCaptiveApple = regexp.MustCompile(`CaptiveNetworkSupport`)
	reAppleOS      = regexp.MustCompile(`(OS X|iPhone OS|iPad OS)`)
	reNCSI         = regexp.MustCompile(`Microsoft NCSI`)
	reWindows      = regexp.MustCompile(`Windows`)
	reLinux        = regexp.MustCompile(`Linux`)
)

// clientMetadata extracts what the portal records about a client from its
// request headers.
func clientMetadata(r *http.Request) models.ClientMetadata {
	ua := r.UserAgent()
	parsed := useragent.New(ua)
	osInfo := parsed.OSInfo()
	browser, browserVersion := parsed.Browser()

	return models.ClientMetadata{
		Platform:       detectPlatform(ua, osInfo.Name),
		System:         osInfo.Name,
		SystemVersion:  osInfo.Version,
		Browser:        browser,
		BrowserVersion: browserVersion,
		Language:       i18n.PreferredLanguage(r.Header.Get("Accept-Language")),
	}
}

// detectPlatform classifies the captive-portal probe. Apple's probe agent
// and Microsoft NCSI win over what the rest of the string suggests.
func detectPlatform(ua, osName string) string {
	var platform string

	switch {
	case reNCSI.MatchString(ua):
		platform = "windows"
	case reCaptiveApple.MatchString(ua):
		platform = "apple"
	case reAndroid.MatchString(ua):
		platform = "android"
	case reAppleOS.MatchString(ua):
		platform = "apple"
	case reWindows.MatchString(ua):
		platform = "windows"
	case reLinux.MatchString(ua):
		platform = "linux"
	}

	if platform == "" {
		platform = strings.ToLower(osName)
	}
	return platform
}
