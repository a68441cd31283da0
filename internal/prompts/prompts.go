package prompts

// ============================================================================
// Shared Lexicons
// ============================================================================

// ThemeKeywords maps each theme label to the words that signal it in poem text.
var ThemeKeywords = map[string][]string{
	"nature": {
		"nature", "natural", "wild", "wilderness", "forest", "wood", "woods",
		"tree", "trees", "leaf", "leaves", "green", "earth", "ground", "land",
		"countryside", "country", "rural", "pastoral", "meadow", "field", "fields",
	},
	"flowers": {
		"flower", "flowers", "bloom", "blooms", "blossom", "blossoms", "petal", "petals",
		"rose", "roses", "daffodil", "daffodils", "lily", "lilies", "tulip", "tulips",
		"garden", "gardens", "floral", "botanical",
	},
	"water": {
		"water", "sea", "ocean", "lake", "river", "stream", "brook", "pond", "pool",
		"wave", "waves", "tide", "tides", "rain", "rainy", "storm", "storms",
		"sail", "sailing", "boat", "boats", "ship", "ships", "fishing", "fisherman",
	},
	"love": {
		"love", "loved", "loving", "beloved", "heart", "hearts", "romance", "romantic",
		"kiss", "kisses", "embrace", "embraces", "passion", "passionate", "desire",
		"affection", "tender", "darling", "lover", "lovers",
	},
	"death": {
		"death", "die", "dies", "died", "dying", "dead", "grave", "graves", "burial",
		"funeral", "mourning", "grief", "sorrow", "tears", "weep", "weeping",
		"memorial", "remembrance", "ghost", "ghosts", "dust", "ashes", "epitaph",
		"tomb", "cemetery",
	},
	"war": {
		"war", "wars", "warfare", "battle", "battles", "fight", "fighting", "soldier",
		"soldiers", "army", "armies", "weapon", "weapons", "sword", "swords", "gun",
		"guns", "bomb", "bombs", "conflict", "conflicts",
	},
	"night": {
		"night", "nights", "dark", "darkness", "midnight", "evening", "evenings",
		"dusk", "twilight", "moon", "moonlight", "stars", "starry", "sleep", "sleeping",
		"dream", "dreams", "shadow", "shadows",
	},
	"day": {
		"day", "days", "morning", "mornings", "dawn", "sunrise", "sun", "sunny",
		"bright", "daylight", "noon", "afternoon", "golden", "sky", "skies",
	},
	"city": {
		"city", "cities", "urban", "town", "towns", "street", "streets", "road", "roads",
		"building", "buildings", "house", "houses", "window", "windows",
		"door", "doors", "wall", "walls", "roof", "roofs", "crowd", "crowds",
	},
	"animals": {
		"animal", "animals", "bird", "birds", "dog", "dogs", "cat", "cats", "horse",
		"horses", "cow", "cows", "sheep", "lamb", "lambs", "wolf", "wolves", "lion",
		"lions", "eagle", "eagles", "swan", "swans", "butterfly", "butterflies",
	},
	"seasons": {
		"spring", "springtime", "summer", "autumn", "fall", "winter", "season", "seasons",
	},
}

// EmotionKeywords maps each emotion label to the words that signal it.
var EmotionKeywords = map[string][]string{
	"grief":      {"mourning", "memorial", "sorrow", "loss", "burial", "funeral", "grave", "grief", "weep"},
	"melancholy": {"solitary", "twilight", "pensive", "sad", "blue", "lonely", "alone", "melancholy"},
	"joy":        {"celebration", "dance", "festive", "colorful", "happy", "merry", "joy", "laugh"},
	"peace":      {"pastoral", "serene", "calm", "quiet", "peaceful", "tranquil", "gentle", "still"},
	"love":       {"romance", "passion", "tender", "sweet", "beloved", "heart", "kiss", "love"},
	"hope":       {"dawn", "promise", "future", "renewal", "hope", "rise", "begin"},
	"despair":    {"hopeless", "empty", "void", "nothing", "lost", "despair", "ruin"},
	"nostalgia":  {"memory", "memories", "past", "remember", "childhood", "home", "familiar", "once"},
}

// ToneByEmotion picks an emotional tone from the strongest detected emotion.
var ToneByEmotion = map[string]string{
	"grief":      "serious",
	"melancholy": "melancholic",
	"joy":        "celebratory",
	"peace":      "contemplative",
	"love":       "contemplative",
	"hope":       "contemplative",
	"despair":    "serious",
	"nostalgia":  "melancholic",
}

// ObjectKeywords are concrete nouns the keyword analyzer copies into the
// analysis so artwork objects can be matched literally.
var ObjectKeywords = []string{
	"tree", "trees", "flower", "flowers", "rose", "roses", "sea", "ocean", "water",
	"mountain", "mountains", "house", "houses", "building", "ship", "ships", "boat",
	"boats", "bird", "birds", "horse", "horses", "dog", "dogs", "cat", "cats",
	"moon", "sun", "river", "field", "garden", "window", "church", "bridge",
}

// SettingKeywords map setting labels to their signal words.
var SettingKeywords = map[string][]string{
	"seascape": {"sea", "ocean", "shore", "harbor", "harbour", "waves", "tide"},
	"rural":    {"field", "fields", "meadow", "farm", "pasture", "village", "countryside"},
	"urban":    {"city", "street", "streets", "town", "avenue", "crowd"},
	"indoor":   {"room", "kitchen", "chamber", "hall", "bed", "table"},
	"outdoor":  {"sky", "hill", "hills", "forest", "woods", "road"},
}

// TimeKeywords map time-of-day labels to their signal words.
var TimeKeywords = map[string][]string{
	"dawn":  {"dawn", "sunrise", "daybreak"},
	"day":   {"noon", "afternoon", "daylight", "sunlit"},
	"dusk":  {"dusk", "twilight", "sunset", "evening"},
	"night": {"night", "midnight", "moonlight", "stars"},
}

// SeasonKeywords map season labels to their signal words.
var SeasonKeywords = map[string][]string{
	"spring": {"spring", "springtime", "april", "may"},
	"summer": {"summer", "june", "july", "august"},
	"autumn": {"autumn", "fall", "october", "harvest"},
	"winter": {"winter", "snow", "frost", "december", "ice"},
}

// ColorWords are the colour names recognised in poem text.
var ColorWords = []string{
	"red", "blue", "green", "yellow", "gold", "golden", "white", "black", "grey",
	"gray", "silver", "purple", "crimson", "scarlet", "orange", "brown", "pink",
}

// ============================================================================
// Vision Prompts
// ============================================================================

// VisionSystemPrompt defines the role and output contract for artwork analysis.
const VisionSystemPrompt = `You are an art analyst. You describe what is visibly present in an artwork image so it can be matched against poems.

Rules:
- Report only what can be seen. Do not guess the artist or title.
- Use lowercase single words or short phrases.
- Return ONLY a JSON object with no surrounding text and no markdown fences.`

// VisionUserPrompt lists the fields and the allowed values for each.
const VisionUserPrompt = `Analyze this artwork and return ONLY a JSON object:
{
  "detected_objects": ["specific objects visible in the image"],
  "dominant_colors": ["color1", "color2", "color3"],
  "setting": "indoor|outdoor|abstract|urban|rural|seascape|celestial",
  "time_of_day": "dawn|day|dusk|night|ambiguous",
  "season": "spring|summer|autumn|winter|none",
  "human_presence": "central|peripheral|absent",
  "composition": "intimate|expansive|chaotic|ordered",
  "mood": "light|dark|dramatic|serene|turbulent|joyful|melancholic"
}

Return ONLY valid JSON with no additional text.`
