package models

// AnimeInfo is the aggregator's anime page with its season data
type AnimeInfo struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Poster        string         `json:"poster,omitempty"`
	Seasons       []SeasonEntry  `json:"seasons"`
	RelatedAnimes []RelatedAnime `json:"relatedAnimes"`
}

// SeasonEntry is a season listed on the aggregator's anime page
type SeasonEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Poster    string `json:"poster,omitempty"`
	IsCurrent bool   `json:"isCurrent"`
}

// RelatedAnime is a related title that may be an alternate season
type RelatedAnime struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// DetectedSeason is a related title recognized as part of the same series
type DetectedSeason struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Number    int    `json:"number,omitempty"`
	IsCurrent bool   `json:"isCurrent"`
}
