// Package i18n picks the portal language from Accept-Language and holds the
// translated page strings.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is used when no offered language matches.
var DefaultLang = language.English

// SupportedLangs are the languages the portal pages are translated to.
var SupportedLangs = []language.Tag{
	language.English,
	language.French,
}

var matcher = language.NewMatcher(SupportedLangs)

// MatchLanguage returns the supported language closest to an Accept-Language
// header value. Regional variants collapse to their base language.
func MatchLanguage(acceptLang string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLang
	}
	return SupportedLangs[index]
}

// PreferredLanguage returns the client's first choice as sent, or "".
func PreferredLanguage(acceptLang string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}

func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}
