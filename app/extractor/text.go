package extractor

import (
	"regexp"
	"strings"
	"unicode"
)

type Language string

const (
	LanguagePersian Language = "persian"
	LanguageEnglish Language = "english"
	LanguageUnknown Language = "unknown"
)

// Arabic presentation variants that appear in Persian text scraped from
// mixed-encoding sources, mapped to their standard Persian forms.
var persianNormalizer = strings.NewReplacer(
	"ي", "ی", // Arabic yeh -> Persian yeh
	"ى", "ی", // Alef maksura -> Persian yeh
	"ك", "ک", // Arabic kaf -> Persian kaf
	"ة", "ه", // Teh marbuta -> heh
	"ـ", "", // Tatweel
)

var whitespaceRe = regexp.MustCompile(`[ \t\r\f\v]+`)
var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// CleanText normalizes extracted text: Persian character variants are
// unified, control characters stripped, and whitespace collapsed while
// paragraph breaks are preserved.
func CleanText(text string) string {
	text = persianNormalizer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	text = b.String()

	text = whitespaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// DetectLanguage guesses the dominant language from Unicode script ratios.
// Text with at least 30% Arabic-block characters counts as Persian.
func DetectLanguage(text string) Language {
	var persian, latin, letters int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			persian++
		case r < 0x0250:
			latin++
		}
	}

	if letters == 0 {
		return LanguageUnknown
	}
	if float64(persian)/float64(letters) >= 0.3 {
		return LanguagePersian
	}
	if float64(latin)/float64(letters) >= 0.5 {
		return LanguageEnglish
	}
	return LanguageUnknown
}

// CountWords counts whitespace-separated tokens
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// MatchesKeywords reports whether at least one keyword occurs in the text,
// case-insensitive substring match. An empty keyword list matches everything.
func MatchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
