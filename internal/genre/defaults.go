package genre

// Group is one associate group of the reference taxonomy: a main genre,
// the category it belongs to, and the subject keywords associated with it.
// The main genre's own name may appear among the associates; it is not
// treated as a specific keyword.
type Group struct {
	Category   string
	Main       string
	Associates []string
}

// Taxonomy categories.
const (
	CategoryFiction    = "fiction"
	CategoryNonFiction = "non-fiction"
	CategorySelfHelp   = "self-help"
)

// DefaultGroups is the built-in reference taxonomy. Groups are listed in
// priority order: a keyword claimed by two groups resolves to the first.
var DefaultGroups = []Group{
	{
		Category: CategoryFiction,
		Main:     "fantasy",
		Associates: []string{
			"fantasy", "epic fantasy", "high fantasy", "urban fantasy", "dark fantasy",
			"litrpg", "progression fantasy", "sword and sorcery", "romantasy", "grimdark",
			"portal fantasy", "fairy tales", "fairy tale retelling", "magic", "dragons",
			"wizards", "mythology", "fantasy fiction",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "science fiction",
		Associates: []string{
			"science fiction", "sci-fi", "hard science fiction", "space opera", "cyberpunk",
			"post-apocalyptic", "military science fiction", "first contact", "time travel",
			"dystopian", "dystopias", "robots", "aliens", "interplanetary voyages",
			"extraterrestrial beings", "artificial intelligence",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "mystery",
		Associates: []string{
			"mystery", "mystery fiction", "cozy mystery", "police procedural", "detective",
			"detective and mystery stories", "private investigators", "crime fiction",
			"noir", "whodunit",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "thriller",
		Associates: []string{
			"thriller", "thrillers", "suspense", "legal thriller", "psychological thriller",
			"espionage", "spy stories", "conspiracy", "political thriller",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "romance",
		Associates: []string{
			"romance", "love stories", "contemporary romance", "historical romance",
			"paranormal romance", "romantic suspense", "romantic comedy", "courtship",
			"man-woman relationships", "regency",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "horror",
		Associates: []string{
			"horror", "horror tales", "ghost stories", "supernatural horror", "cosmic horror",
			"gothic horror", "gothic fiction", "slasher", "vampires", "monsters", "werewolves",
			"haunted houses",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "historical fiction",
		Associates: []string{
			"historical fiction", "historical novels", "medieval fiction", "victorian fiction",
			"war stories", "world war fiction", "ancient history fiction",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "literary fiction",
		Associates: []string{
			"literary fiction", "classics", "classic literature", "domestic fiction",
			"psychological fiction", "bildungsromans", "satire",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "adventure",
		Associates: []string{
			"adventure", "adventure stories", "sea stories", "voyages and travels fiction",
			"survival", "pirates", "treasure hunting",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "humor",
		Associates: []string{
			"humor", "humorous stories", "comedy", "parody", "wit and humor",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "western",
		Associates: []string{
			"western", "western stories", "cowboys", "frontier and pioneer life",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "young adult",
		Associates: []string{
			"young adult", "young adult fiction", "ya fantasy", "ya sci-fi",
			"ya romance", "coming of age", "teen",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "children",
		Associates: []string{
			"children", "children's stories", "juvenile fiction", "picture books",
			"middle grade", "fairy stories", "nursery rhymes",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "poetry",
		Associates: []string{
			"poetry", "poems", "sonnets", "epic poetry", "verse", "ballads",
		},
	},
	{
		Category: CategoryFiction,
		Main:     "drama",
		Associates: []string{
			"drama", "plays", "tragedies", "comedies", "theater",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "biography",
		Associates: []string{
			"biography", "autobiography", "memoir", "memoirs", "biography and autobiography",
			"diaries", "correspondence",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "history",
		Associates: []string{
			"history", "ancient history", "modern history", "military history", "world history",
			"civilization", "archaeology",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "science",
		Associates: []string{
			"science", "physics", "biology", "astronomy", "chemistry", "mathematics",
			"natural history", "evolution", "environment",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "philosophy",
		Associates: []string{
			"philosophy", "ethics", "metaphysics", "logic", "stoicism", "existentialism",
			"political philosophy",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "religion",
		Associates: []string{
			"religion", "spirituality", "theology", "christianity", "buddhism", "bible",
			"mysticism",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "true crime",
		Associates: []string{
			"true crime", "criminals", "murder", "trials",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "politics",
		Associates: []string{
			"politics", "political science", "economics", "sociology", "social sciences",
			"government",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "business",
		Associates: []string{
			"business", "finance", "entrepreneurship", "investing", "leadership", "marketing",
			"management",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "travel",
		Associates: []string{
			"travel", "travel writing", "description and travel", "voyages and travels",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "cooking",
		Associates: []string{
			"cooking", "cookbooks", "food", "recipes", "baking",
		},
	},
	{
		Category: CategoryNonFiction,
		Main:     "technology",
		Associates: []string{
			"technology", "computers", "programming", "engineering", "software",
		},
	},
	{
		Category: CategorySelfHelp,
		Main:     "self help",
		Associates: []string{
			"self help", "self-help", "personal development", "productivity", "motivation",
			"success", "habits", "conduct of life",
		},
	},
	{
		Category: CategorySelfHelp,
		Main:     "psychology",
		Associates: []string{
			"psychology", "mental health", "mindfulness", "relationships", "happiness",
			"emotions",
		},
	},
	{
		Category: CategorySelfHelp,
		Main:     "health",
		Associates: []string{
			"health", "fitness", "nutrition", "diet", "wellness", "exercise",
		},
	},
}
