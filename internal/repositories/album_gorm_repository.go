package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"albumportal/internal/database"
	"albumportal/internal/models"

	"gorm.io/gorm"
)

// newestFirst orders dated albums before undated ones, newest first, with
// ties broken by name.
const newestFirst = "CASE WHEN oldest_photo_date IS NULL THEN 1 ELSE 0 END, oldest_photo_date DESC, album_name ASC"

// GORMAlbumRepository is a GORM implementation of AlbumRepository. The table
// name comes from the models.AlbumTable allow-list only.
type GORMAlbumRepository struct {
	db    *gorm.DB
	table models.AlbumTable
	retry database.Retrier
}

// NewGORMAlbumRepository creates a new instance of GORMAlbumRepository.
func NewGORMAlbumRepository(db *gorm.DB, table models.AlbumTable, retry database.Retrier) *GORMAlbumRepository {
	return &GORMAlbumRepository{db: db, table: table, retry: retry}
}

func (r *GORMAlbumRepository) albums(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(string(r.table))
}

func (r *GORMAlbumRepository) find(ctx context.Context, op string, query func(*gorm.DB) *gorm.DB) ([]models.Album, error) {
	var albums []models.Album
	err := r.retry.Do(ctx, op, func(ctx context.Context) error {
		albums = nil
		return query(r.albums(ctx)).Find(&albums).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return albums, nil
}

// ListFeatured retrieves up to limit albums of the curated tab.
func (r *GORMAlbumRepository) ListFeatured(ctx context.Context, limit int) ([]models.Album, error) {
	return r.find(ctx, "list featured albums", func(q *gorm.DB) *gorm.DB {
		return q.Where("tab_name = ?", string(models.TabCategories)).Order("row_num, col_num").Limit(limit)
	})
}

// ListByCategory retrieves every album of category in the general listing.
func (r *GORMAlbumRepository) ListByCategory(ctx context.Context, category models.Category) ([]models.Album, error) {
	return r.find(ctx, "list albums by category", func(q *gorm.DB) *gorm.DB {
		return q.Where("tab_name = ? AND category = ?", string(models.TabAll), string(category)).Order(newestFirst)
	})
}

// Search applies the name and year conditions of filter.
func (r *GORMAlbumRepository) Search(ctx context.Context, filter models.AlbumFilter) ([]models.Album, error) {
	return r.find(ctx, "search albums", func(q *gorm.DB) *gorm.DB {
		q = q.Where("tab_name = ?", string(models.TabAll))
		if filter.NameContains != "" {
			pattern := "%" + escapeLike(strings.ToLower(filter.NameContains)) + "%"
			q = q.Where(`LOWER(album_name) LIKE ? ESCAPE '\'`, pattern)
		}
		if len(filter.Years) > 0 {
			clause, args := yearClause(filter.Years)
			q = q.Where(clause, args...)
		}
		return q.Order(newestFirst)
	})
}

// ListWithThumbnails retrieves albums usable as header thumbnails.
func (r *GORMAlbumRepository) ListWithThumbnails(ctx context.Context) ([]models.Album, error) {
	return r.find(ctx, "list album thumbnails", func(q *gorm.DB) *gorm.DB {
		return q.Where("tab_name = ? AND thumbnail_url IS NOT NULL AND thumbnail_url <> ''", string(models.TabAll))
	})
}

// yearClause turns year ranges into half-open date intervals joined by OR,
// which keeps the predicate portable across postgres and sqlite.
func yearClause(years []models.YearRange) (string, []any) {
	parts := make([]string, 0, len(years))
	args := make([]any, 0, 2*len(years))
	for _, y := range years {
		parts = append(parts, "(oldest_photo_date >= ? AND oldest_photo_date < ?)")
		args = append(args,
			time.Date(y.From, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(y.To+1, time.January, 1, 0, 0, 0, 0, time.UTC))
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
