package language

import (
	"strings"

	"github.com/spec-kit/intake-assistant/internal/domain"
)

var dutchIndicators = []string{
	"de", "het", "een", "is", "van", "en", "met", "voor", "niet", "mijn",
	"zijn", "hebben", "worden", "kunnen", "deze", "maar", "wat", "hoe",
	"waar", "wanneer", "waarom", "ik", "je", "hij", "zij", "wij", "jullie", "u",
}

var englishIndicators = []string{
	"the", "is", "are", "and", "or", "but", "with", "for", "not", "my",
	"have", "will", "can", "this", "what", "how", "where", "when", "why",
	"i", "you", "he", "she", "we", "they",
}

// Detect classifies text as Dutch or English by counting indicator words
// with whole-word boundary matching. Ties and empty input resolve to
// English.
func Detect(text string) domain.Locale {
	// Padding makes string-edge words match the same way as interior ones.
	padded := " " + strings.ToLower(text) + " "

	dutchCount := 0
	for _, word := range dutchIndicators {
		if strings.Contains(padded, " "+word+" ") {
			dutchCount++
		}
	}

	englishCount := 0
	for _, word := range englishIndicators {
		if strings.Contains(padded, " "+word+" ") {
			englishCount++
		}
	}

	if dutchCount > englishCount {
		return domain.LocaleDutch
	}
	return domain.LocaleEnglish
}
