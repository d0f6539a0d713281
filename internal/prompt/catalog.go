package prompt

// ContentType describes one supported content format and where it is
// published.
type ContentType struct {
	Name      string
	Platforms []string
	WordRange [2]int
}

// ContentTypes is the catalog of supported content formats, used by the
// CLI and the REST surface to validate and describe generation requests.
var ContentTypes = map[string]ContentType{
	"blog_article": {
		Name:      "Blog Article",
		Platforms: []string{"blog"},
		WordRange: [2]int{800, 2500},
	},
	"social_post": {
		Name:      "Social Post",
		Platforms: []string{"facebook", "instagram", "twitter", "linkedin"},
		WordRange: [2]int{50, 300},
	},
	"email": {
		Name:      "Email",
		Platforms: []string{"email"},
		WordRange: [2]int{200, 800},
	},
	"youtube_script": {
		Name:      "YouTube Script",
		Platforms: []string{"youtube"},
		WordRange: [2]int{500, 2000},
	},
	"pinterest_pin": {
		Name:      "Pinterest Pin",
		Platforms: []string{"pinterest"},
		WordRange: [2]int{50, 200},
	},
	"ad_copy": {
		Name:      "Ad Copy",
		Platforms: []string{"facebook", "instagram"},
		WordRange: [2]int{20, 150},
	},
}

// KnownContentType reports whether a content type id is in the catalog.
func KnownContentType(id string) bool {
	_, ok := ContentTypes[id]
	return ok
}
