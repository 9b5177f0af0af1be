package models

import (
	"fmt"
	"time"
)

// Tab partitions album rows into the curated source and the general listing.
type Tab string

const (
	TabCategories Tab = "Categories"
	TabAll        Tab = "All"
)

// Category classifies "All" tab albums.
type Category string

const (
	CategoryFamily  Category = "Family"
	CategoryTravel  Category = "Travel"
	CategoryFriends Category = "Friends"
	CategoryHobby   Category = "Hobby"
)

// AlbumTable is the name of the album table. Only the values listed in
// AlbumTables may reach a query.
type AlbumTable string

const (
	AlbumTableDefault AlbumTable = "album_list"
	AlbumTableStaging AlbumTable = "album_list_staging"
)

// AlbumTables is the allow-list of album table identifiers.
var AlbumTables = []AlbumTable{AlbumTableDefault, AlbumTableStaging}

// ParseAlbumTable returns the allow-listed table matching name.
func ParseAlbumTable(name string) (AlbumTable, error) {
	for _, t := range AlbumTables {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("album table %q is not allowed", name)
}

// Album is a read-only album entry managed outside the portal.
type Album struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	AlbumName       string     `json:"album_name" gorm:"type:varchar(255);not null"`
	Endpoint        string     `json:"endpoint" gorm:"type:text;not null"`
	ThumbnailURL    string     `json:"thumbnail_url" gorm:"type:text"`
	TabName         Tab        `json:"tab_name" gorm:"type:varchar(50);not null"`
	Category        Category   `json:"category" gorm:"type:varchar(50)"`
	RowNum          int        `json:"row_num" gorm:"not null;default:0"`
	ColNum          int        `json:"col_num" gorm:"not null;default:0"`
	CreatedAt       *time.Time `json:"created_at"`
	OldestPhotoDate *time.Time `json:"oldest_photo_date"`
}
