package models

// ParsedEpisodeURL is a scrape-site episode key of the form <animeSlug>-<season>x<episode>
type ParsedEpisodeURL struct {
	Slug      string
	AnimeSlug string
	Season    int
	Episode   int
	FullURL   string
}

// ServerVideo is one entry of a delivery server's episode table.
// Name is either a zero-padded number ("01") or season-qualified ("S5E12").
type ServerVideo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Server names used by the serverVideos table
const (
	ServerFilemoon  = "filemoon"
	ServerServabyss = "servabyss"
	ServerVidgroud  = "vidgroud"
)

// ServerNames lists the delivery servers in lookup order
var ServerNames = []string{ServerFilemoon, ServerServabyss, ServerVidgroud}

// ServerTable holds the per-server episode tables of an anime page
type ServerTable struct {
	Filemoon  []ServerVideo `json:"filemoon"`
	Servabyss []ServerVideo `json:"servabyss"`
	Vidgroud  []ServerVideo `json:"vidgroud"`
}

// Get returns the episode table of a named server
func (t *ServerTable) Get(server string) []ServerVideo {
	switch server {
	case ServerFilemoon:
		return t.Filemoon
	case ServerServabyss:
		return t.Servabyss
	case ServerVidgroud:
		return t.Vidgroud
	default:
		return nil
	}
}

// Set replaces the episode table of a named server
func (t *ServerTable) Set(server string, videos []ServerVideo) {
	switch server {
	case ServerFilemoon:
		t.Filemoon = videos
	case ServerServabyss:
		t.Servabyss = videos
	case ServerVidgroud:
		t.Vidgroud = videos
	}
}

// Each calls fn for every server in lookup order
func (t *ServerTable) Each(fn func(server string, videos []ServerVideo)) {
	for _, name := range ServerNames {
		fn(name, t.Get(name))
	}
}

// Total returns the number of entries across all servers
func (t *ServerTable) Total() int {
	return len(t.Filemoon) + len(t.Servabyss) + len(t.Vidgroud)
}

// AnimePageData is the scraped anime page of the named-server site
type AnimePageData struct {
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	Description string      `json:"description,omitempty"`
	Rating      string      `json:"rating,omitempty"`
	Servers     ServerTable `json:"servers"`
}

// ServerMatch is a server entry matching a requested episode
type ServerMatch struct {
	Server string
	Video  ServerVideo
}
