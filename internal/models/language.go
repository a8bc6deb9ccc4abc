package models

import (
	"strings"
	"unicode"
)

// UndeterminedLangCode is used for languages missing from the table
const UndeterminedLangCode = "und"

// Language is a normalized language entry
type Language struct {
	Label string
	Code  string
}

var languages = map[string]Language{
	"japanese":  {Label: "Japanese", Code: "jpn"},
	"english":   {Label: "English", Code: "eng"},
	"hindi":     {Label: "Hindi", Code: "hin"},
	"tamil":     {Label: "Tamil", Code: "tam"},
	"telugu":    {Label: "Telugu", Code: "tel"},
	"malayalam": {Label: "Malayalam", Code: "mal"},
	"bengali":   {Label: "Bengali", Code: "ben"},
	"marathi":   {Label: "Marathi", Code: "mar"},
	"kannada":   {Label: "Kannada", Code: "kan"},
	"gujarati":  {Label: "Gujarati", Code: "guj"},
}

// LookupLanguage normalizes a provider language string.
// Unknown strings keep their label and get the undetermined code.
func LookupLanguage(raw string) Language {
	key := strings.ToLower(strings.TrimSpace(raw))
	if lang, ok := languages[key]; ok {
		return lang
	}
	if key == "" {
		return Language{Label: "Unknown", Code: UndeterminedLangCode}
	}
	return Language{Label: titleCase(key), Code: UndeterminedLangCode}
}

// IsDubLanguage reports whether audio in the given language counts as a dub
func IsDubLanguage(raw string) bool {
	return strings.ToLower(strings.TrimSpace(raw)) != "japanese"
}

func titleCase(s string) string {
	runes := []rune(s)
	upperNext := true
	for i, r := range runes {
		if unicode.IsSpace(r) {
			upperNext = true
			continue
		}
		if upperNext {
			runes[i] = unicode.ToUpper(r)
			upperNext = false
		}
	}
	return string(runes)
}
