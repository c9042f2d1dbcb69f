package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// TitleLimit is the number of title runes kept in an entity label.
const TitleLimit = 50

// LabelSeparator joins the source label and the video title.
const LabelSeparator = " – "

var titleCaser = cases.Title(language.Und)

// Truncate returns the first limit runes of the NFC form of s.
func Truncate(s string, limit int) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}

// Label renders "<prefix> – <title>" with the title truncated to TitleLimit
// runes. An empty prefix yields the truncated title alone.
func Label(prefix, title string) string {
	prefix = norm.NFC.String(strings.TrimSpace(prefix))
	title = Truncate(title, TitleLimit)
	switch {
	case prefix == "":
		return title
	case title == "":
		return prefix
	default:
		return prefix + LabelSeparator + title
	}
}

// HumanizeKey turns a source key such as "tech_news" into "Tech News".
func HumanizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	fields := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	return titleCaser.String(strings.Join(fields, " "))
}
