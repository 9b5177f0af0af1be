package models

// AlbumCard is the display form of an album. Row and Col are only set for
// the curated rows of the home view.
type AlbumCard struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Endpoint     string `json:"endpoint"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Row          int    `json:"row,omitempty"`
	Col          int    `json:"col,omitempty"`
}

// AlbumRow is one titled row of the home view.
type AlbumRow struct {
	Row      int         `json:"row"`
	Title    string      `json:"title"`
	Category Category    `json:"category,omitempty"`
	Albums   []AlbumCard `json:"albums"`
}

// CategoryListing is the full, paginated album list of one category.
type CategoryListing struct {
	Category Category      `json:"category"`
	Count    int           `json:"count"`
	Groups   [][]AlbumCard `json:"groups"`
}

// HomeView is everything the landing page shows besides search results.
type HomeView struct {
	Featured   AlbumRow          `json:"featured"`
	Latest     []AlbumRow        `json:"latest"`
	Categories []CategoryListing `json:"categories"`
}

// YearGroup holds search hits sharing one calendar year. Year is zero for
// the Unknown group.
type YearGroup struct {
	Label  string      `json:"label"`
	Year   int         `json:"year,omitempty"`
	Albums []AlbumCard `json:"albums"`
}

// SearchResult is the outcome of a name/year search.
type SearchResult struct {
	Query     string      `json:"query"`
	YearSpec  string      `json:"year"`
	Performed bool        `json:"performed"`
	Total     int         `json:"total"`
	Years     []YearGroup `json:"years"`
	Warnings  []string    `json:"warnings,omitempty"`
}

// Thumbnail is a header thumbnail descriptor.
type Thumbnail struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Endpoint string `json:"endpoint"`
}

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// AlbumFilter narrows the "All" tab for a search. Ranges combine with OR and
// the whole range set combines with NameContains using AND.
type AlbumFilter struct {
	NameContains string
	Years        []YearRange
}
