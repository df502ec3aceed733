package translation

import (
	"sort"
	"strings"
)

// supportedLanguages maps translator language codes to their native display names
var supportedLanguages = map[string]string{
	"ar":      "العربية",
	"zh":      "中文",
	"zh-Hans": "中文 (简体)",
	"zh-Hant": "中文 (繁體)",
	"cs":      "Čeština",
	"da":      "Dansk",
	"nl":      "Nederlands",
	"en":      "English",
	"fi":      "Suomi",
	"fr":      "Français",
	"de":      "Deutsch",
	"el":      "Ελληνικά",
	"hi":      "हिंदी",
	"hu":      "Magyar",
	"it":      "Italiano",
	"ja":      "日本語",
	"ko":      "한국어",
	"no":      "Norsk",
	"pl":      "Polski",
	"pt":      "Português",
	"pt-br":   "Português (Brasil)",
	"ro":      "Română",
	"ru":      "Русский",
	"es":      "Español",
	"sv":      "Svenska",
	"th":      "ไทย",
	"tr":      "Türkçe",
	"uk":      "Українська",
	"vi":      "Tiếng Việt",
}

// SupportedLanguages returns a copy of the language table
func SupportedLanguages() map[string]string {
	out := make(map[string]string, len(supportedLanguages))
	for code, name := range supportedLanguages {
		out[code] = name
	}
	return out
}

// LanguageCodes returns the supported codes sorted by code
func LanguageCodes() []string {
	codes := make([]string, 0, len(supportedLanguages))
	for code := range supportedLanguages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsSupported reports whether code is in the language table
func IsSupported(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// LanguageDisplayName returns the display name for code, or code itself when unknown
func LanguageDisplayName(code string) string {
	if name, ok := supportedLanguages[code]; ok {
		return name
	}
	return code
}

// ExtractLanguageCode returns the lowercased primary subtag of a locale ("en-US" -> "en")
func ExtractLanguageCode(locale string) string {
	primary, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(primary)
}
