package models

import (
	"time"

	"github.com/minkhant/sandaya/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// An Album is a drive folder containing at least one indexed song.
// The FolderID is the drive item id of the folder on the upstream provider.
type Album struct {
	snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt    time.Time
	Name         string `gorm:"size:256;not null"`
	Artist       string `gorm:"size:256"`
	FolderID     string `gorm:"size:256;not null;uniqueIndex"`
	Path         string `gorm:"size:512"`
	Songs        []Song `gorm:"constraint:OnDelete:SET NULL;"`
}

type Albums struct {
	db *gorm.DB
}

func NewAlbums(db *gorm.DB) *Albums {
	return &Albums{db: db}
}

// Find returns the album with the given id.
func (a *Albums) Find(id snowflake.ID) (*Album, error) {
	var album Album
	if err := a.db.Take(&album, uint64(id)).Error; err != nil {
		return nil, err
	}
	return &album, nil
}

// Search returns albums whose name matches the query.
func (a *Albums) Search(q string, limit int) ([]Album, error) {
	var albums []Album
	err := a.db.
		Where("name LIKE ?", "%"+q+"%").
		Order("artist, name").
		Limit(limit).
		Find(&albums).Error
	return albums, err
}

// ByArtist returns albums whose artist matches the query.
func (a *Albums) ByArtist(q string, limit int) ([]Album, error) {
	var albums []Album
	err := a.db.
		Where("artist LIKE ?", "%"+q+"%").
		Order("name").
		Limit(limit).
		Find(&albums).Error
	return albums, err
}

// FindOrCreate returns the album for the given drive folder, creating it
// on first sight. The indexer calls this once per folder that contains
// audio files.
func (a *Albums) FindOrCreate(album *Album) (*Album, error) {
	if err := a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "folder_id"}},
		DoNothing: true,
	}).Create(album).Error; err != nil {
		return nil, err
	}
	var out Album
	if err := a.db.Take(&out, "folder_id = ?", album.FolderID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
