package genre

// DistributionGenres are the main genres counted by DivideByGenre, in
// output order.
var DistributionGenres = []string{
	"fantasy",
	"science_fiction",
	"mystery",
	"romance",
	"horror",
	"thriller",
	"historical_fiction",
	"biography",
	"self_help",
	"philosophy",
	"poetry",
}

// OtherGenre collects books that match none of DistributionGenres.
const OtherGenre = "other"

// Synonyms maps subject keys to the distribution genre they stand for when
// neither equality nor containment catches them.
var Synonyms = map[string]string{
	// Science fiction
	"sci_fi": "science_fiction",
	"scifi":  "science_fiction",
	"sf":     "science_fiction",

	// Fantasy
	"sword_and_sorcery": "fantasy",
	"litrpg":            "fantasy",
	"romantasy":         "fantasy",
	"fairy_tales":       "fantasy",

	// Mystery
	"detective_and_mystery_stories": "mystery",
	"whodunit":                      "mystery",
	"cozy_mystery":                  "mystery",
	"crime_fiction":                 "mystery",

	// Romance
	"love_stories": "romance",
	"courtship":    "romance",

	// Horror
	"ghost_stories":  "horror",
	"gothic_fiction": "horror",
	"scary":          "horror",

	// Thriller
	"suspense":         "thriller",
	"spy_stories":      "thriller",
	"espionage":        "thriller",
	"thrillers":        "thriller",
	"suspense_fiction": "thriller",

	// Historical fiction
	"historical":        "historical_fiction",
	"historical_novels": "historical_fiction",

	// Biography
	"autobiography": "biography",
	"memoir":        "biography",
	"memoirs":       "biography",

	// Self-help
	"selfhelp":             "self_help",
	"personal_development": "self_help",
	"conduct_of_life":      "self_help",

	// Philosophy
	"ethics":      "philosophy",
	"stoicism":    "philosophy",
	"metaphysics": "philosophy",

	// Poetry
	"poems":   "poetry",
	"sonnets": "poetry",
	"verse":   "poetry",
}
