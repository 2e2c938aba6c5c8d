package chat

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is the tutor's language code.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Tamil   Language = "ta"
	Telugu  Language = "te"
)

// LanguageInfo describes a selectable language for the client.
type LanguageInfo struct {
	Code Language `json:"code"`
	Name string   `json:"name"`
	Flag string   `json:"flag"`
}

var catalog = []LanguageInfo{
	{Code: English, Name: "English", Flag: "🇺🇸"},
	{Code: Hindi, Name: "हिंदी (Hindi)", Flag: "🇮🇳"},
	{Code: Tamil, Name: "தமிழ் (Tamil)", Flag: "🇮🇳"},
	{Code: Telugu, Name: "తెలుగు (Telugu)", Flag: "🇮🇳"},
}

// Catalog lists the supported languages in display order.
func Catalog() []LanguageInfo {
	return append([]LanguageInfo(nil), catalog...)
}

// Languages returns the supported codes in display order.
func Languages() []Language {
	codes := make([]Language, 0, len(catalog))
	for _, info := range catalog {
		codes = append(codes, info.Code)
	}
	return codes
}

// Supported reports whether l has its own tables.
func (l Language) Supported() bool {
	for _, info := range catalog {
		if info.Code == l {
			return true
		}
	}
	return false
}

// OrDefault returns l when supported and English otherwise.
func (l Language) OrDefault() Language {
	if l.Supported() {
		return l
	}
	return English
}

// ParseLanguage accepts a bare code ("hi") or a BCP-47 tag ("hi-IN") and returns
// the supported language it names.
func ParseLanguage(raw string) (Language, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", false
	}

	code := Language(base.String())
	if !code.Supported() {
		return "", false
	}
	return code, true
}
