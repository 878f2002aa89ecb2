package language

import (
	"sort"
	"strings"
)

// Language is a language LibreTranslate accepts as source or target.
type Language struct {
	Code string
	Name string
}

// Auto asks the server to detect the source language.
const Auto = "auto"

// Languages maps LibreTranslate codes to display names.
var Languages = map[string]Language{
	"auto": {Code: "auto", Name: "Auto"},
	"en":   {Code: "en", Name: "English"},
	"sq":   {Code: "sq", Name: "Albanian"},
	"ar":   {Code: "ar", Name: "Arabic"},
	"az":   {Code: "az", Name: "Azerbaijani"},
	"eu":   {Code: "eu", Name: "Basque"},
	"bg":   {Code: "bg", Name: "Bulgarian"},
	"bn":   {Code: "bn", Name: "Bengali"},
	"ca":   {Code: "ca", Name: "Catalan"},
	"zh":   {Code: "zh", Name: "Chinese"},
	"zt":   {Code: "zt", Name: "Chinese (traditional)"},
	"cs":   {Code: "cs", Name: "Czech"},
	"da":   {Code: "da", Name: "Danish"},
	"nl":   {Code: "nl", Name: "Dutch"},
	"eo":   {Code: "eo", Name: "Esperanto"},
	"et":   {Code: "et", Name: "Estonian"},
	"fi":   {Code: "fi", Name: "Finnish"},
	"fr":   {Code: "fr", Name: "French"},
	"gl":   {Code: "gl", Name: "Galician"},
	"de":   {Code: "de", Name: "German"},
	"el":   {Code: "el", Name: "Greek"},
	"he":   {Code: "he", Name: "Hebrew"},
	"hi":   {Code: "hi", Name: "Hindi"},
	"hu":   {Code: "hu", Name: "Hungarian"},
	"id":   {Code: "id", Name: "Indonesian"},
	"ga":   {Code: "ga", Name: "Irish"},
	"it":   {Code: "it", Name: "Italian"},
	"ja":   {Code: "ja", Name: "Japanese"},
	"ko":   {Code: "ko", Name: "Korean"},
	"lv":   {Code: "lv", Name: "Latvian"},
	"lt":   {Code: "lt", Name: "Lithuanian"},
	"ms":   {Code: "ms", Name: "Malay"},
	"nb":   {Code: "nb", Name: "Norwegian"},
	"fa":   {Code: "fa", Name: "Persian"},
	"pl":   {Code: "pl", Name: "Polish"},
	"pt":   {Code: "pt", Name: "Portuguese"},
	"ro":   {Code: "ro", Name: "Romanian"},
	"ru":   {Code: "ru", Name: "Russian"},
	"sk":   {Code: "sk", Name: "Slovak"},
	"sl":   {Code: "sl", Name: "Slovenian"},
	"es":   {Code: "es", Name: "Spanish"},
	"sv":   {Code: "sv", Name: "Swedish"},
	"tl":   {Code: "tl", Name: "Tagalog"},
	"th":   {Code: "th", Name: "Thai"},
	"tr":   {Code: "tr", Name: "Turkish"},
	"uk":   {Code: "uk", Name: "Ukrainian"},
	"ur":   {Code: "ur", Name: "Urdu"},
}

// Get returns the language for an exact code.
func Get(code string) (Language, bool) {
	lang, ok := Languages[code]
	return lang, ok
}

// Resolve accepts a code or a display name, case-insensitively.
func Resolve(codeOrName string) (Language, bool) {
	key := strings.TrimSpace(codeOrName)
	if lang, ok := Languages[strings.ToLower(key)]; ok {
		return lang, true
	}
	for _, lang := range Languages {
		if strings.EqualFold(lang.Name, key) {
			return lang, true
		}
	}
	return Language{}, false
}

// Supported returns every language sorted by Name and then Code.
func Supported() []Language {
	entries := make([]Language, 0, len(Languages))
	for _, v := range Languages {
		entries = append(entries, v)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Code < entries[j].Code
	})
	return entries
}
