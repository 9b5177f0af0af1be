package repositories

import (
	"context"

	"albumportal/internal/models"
)

// AlbumRepository defines read access to album entries.
type AlbumRepository interface {
	// ListFeatured returns curated albums in their manual placement order.
	ListFeatured(ctx context.Context, limit int) ([]models.Album, error)
	// ListByCategory returns the "All" tab albums of one category, newest first.
	ListByCategory(ctx context.Context, category models.Category) ([]models.Album, error)
	// Search returns "All" tab albums matching filter, newest first.
	Search(ctx context.Context, filter models.AlbumFilter) ([]models.Album, error)
	// ListWithThumbnails returns "All" tab albums that have a thumbnail.
	ListWithThumbnails(ctx context.Context) ([]models.Album, error)
}
