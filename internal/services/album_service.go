package services

import (
	"context"
	"math/rand"

	"albumportal/internal/models"
	"albumportal/internal/repositories"
)

// RowSize is the number of albums per display row.
const RowSize = 4

// MaxThumbnails caps the header thumbnail sample.
const MaxThumbnails = 20

const featuredTitle = "Featured Albums"

// latestRows lists the "latest four" rows in display order.
var latestRows = []struct {
	category models.Category
	title    string
}{
	{models.CategoryFamily, "Recent Family Moments"},
	{models.CategoryTravel, "Latest Travel Adventures"},
	{models.CategoryFriends, "Friends & Gatherings"},
	{models.CategoryHobby, "Hobby Highlights"},
}

// ListingCategories is the tab order of the full category listings.
var ListingCategories = []models.Category{
	models.CategoryFamily,
	models.CategoryTravel,
	models.CategoryHobby,
	models.CategoryFriends,
}

// AlbumService builds the curated home view, runs searches and samples
// header thumbnails.
type AlbumService struct {
	repo    repositories.AlbumRepository
	shuffle func(n int, swap func(i, j int))
}

// NewAlbumService creates a new AlbumService.
func NewAlbumService(repo repositories.AlbumRepository) *AlbumService {
	return &AlbumService{repo: repo, shuffle: rand.Shuffle}
}

// HomeView assembles the Featured row, the per-category latest rows and the
// paginated category listings.
func (s *AlbumService) HomeView(ctx context.Context) (*models.HomeView, error) {
	featured, err := s.repo.ListFeatured(ctx, RowSize)
	if err != nil {
		return nil, err
	}
	view := &models.HomeView{
		Featured: placedRow(1, featuredTitle, "", featured),
	}

	byCategory := make(map[models.Category][]models.Album, len(ListingCategories))
	load := func(c models.Category) ([]models.Album, error) {
		if albums, ok := byCategory[c]; ok {
			return albums, nil
		}
		albums, err := s.repo.ListByCategory(ctx, c)
		if err != nil {
			return nil, err
		}
		byCategory[c] = albums
		return albums, nil
	}

	for i, r := range latestRows {
		albums, err := load(r.category)
		if err != nil {
			return nil, err
		}
		view.Latest = append(view.Latest, placedRow(i+2, r.title, r.category, albums[:min(RowSize, len(albums))]))
	}

	for _, c := range ListingCategories {
		albums, err := load(c)
		if err != nil {
			return nil, err
		}
		view.Categories = append(view.Categories, models.CategoryListing{
			Category: c,
			Count:    len(albums),
			Groups:   Chunk(cards(albums), RowSize),
		})
	}
	return view, nil
}

func placedRow(row int, title string, category models.Category, albums []models.Album) models.AlbumRow {
	placed := cards(albums)
	for i := range placed {
		placed[i].Row = row
		placed[i].Col = i + 1
	}
	return models.AlbumRow{Row: row, Title: title, Category: category, Albums: placed}
}

func card(a models.Album) models.AlbumCard {
	return models.AlbumCard{ID: a.ID, Name: a.AlbumName, Endpoint: a.Endpoint, ThumbnailURL: a.ThumbnailURL}
}

func cards(albums []models.Album) []models.AlbumCard {
	out := make([]models.AlbumCard, len(albums))
	for i, a := range albums {
		out[i] = card(a)
	}
	return out
}

// Chunk splits items into consecutive groups of size; the last group may be
// shorter. Empty input yields no groups.
func Chunk[T any](items []T, size int) [][]T {
	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		groups = append(groups, items[start:end:end])
	}
	return groups
}

// RandomThumbnails returns up to MaxThumbnails albums with a thumbnail, in
// random order.
func (s *AlbumService) RandomThumbnails(ctx context.Context) ([]models.Thumbnail, error) {
	albums, err := s.repo.ListWithThumbnails(ctx)
	if err != nil {
		return nil, err
	}
	thumbs := make([]models.Thumbnail, len(albums))
	for i, a := range albums {
		thumbs[i] = models.Thumbnail{Name: a.AlbumName, URL: a.ThumbnailURL, Endpoint: a.Endpoint}
	}
	s.shuffle(len(thumbs), func(i, j int) { thumbs[i], thumbs[j] = thumbs[j], thumbs[i] })
	return thumbs[:min(MaxThumbnails, len(thumbs))], nil
}
