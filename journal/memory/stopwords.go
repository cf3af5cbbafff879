package memory

import "time"

// Bilingual token tables shared by the direct matcher, the entity index
// build, and the temporal resolver. Italian is the journal's primary
// language; English queries are first-class.

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// Italian articles, prepositions, conjunctions
		"il", "lo", "la", "i", "gli", "le", "un", "uno", "una",
		"di", "a", "da", "in", "con", "su", "per", "tra", "fra",
		"che", "chi", "cosa", "come", "dove", "quando", "perché",
		"e", "o", "ma", "se", "non", "più", "anche", "solo",
		// Italian pronouns and possessives
		"mi", "ti", "ci", "vi", "si", "me", "te", "lui", "lei",
		"noi", "voi", "loro", "mio", "tuo", "suo", "nostro",
		"questo", "quello", "quale", "quanto", "tutto", "ogni",
		// Italian conversational verbs a question would carry
		"conosci", "sai", "dimmi", "parlami", "raccontami", "dici",
		// English function words
		"the", "a", "an", "of", "to", "in", "on", "at", "for",
		"with", "and", "or", "but", "not", "what", "who", "when",
		"where", "why", "how", "did", "was", "were", "have", "has",
		"happened", "about", "tell", "know", "remember",
		// English pronouns
		"you", "your", "our", "their", "this", "that", "these", "those",
	} {
		stopwords[w] = struct{}{}
	}
}

var monthNames = map[string]time.Month{
	// Italian
	"gennaio": time.January, "febbraio": time.February, "marzo": time.March,
	"aprile": time.April, "maggio": time.May, "giugno": time.June,
	"luglio": time.July, "agosto": time.August, "settembre": time.September,
	"ottobre": time.October, "novembre": time.November, "dicembre": time.December,
	// English
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

func isStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

func isMonthName(token string) bool {
	_, ok := monthNames[token]
	return ok
}
