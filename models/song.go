package models

import (
	"time"

	"github.com/minkhant/sandaya/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// A Song is a single audio file in the catalog.
// A Song may belong to an Album.
// The FileID is the drive item id of the file on the upstream provider;
// it is opaque to everything except the drive client.
type Song struct {
	snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt    time.Time
	FileID       string `gorm:"size:256;not null;uniqueIndex"`
	FileName     string `gorm:"size:256;not null"`
	Title        string `gorm:"size:256"`
	Artist       string `gorm:"size:256"`
	Album        string `gorm:"size:256"`
	Path         string `gorm:"size:512"`
	AlbumID      *snowflake.ID
}

type Songs struct {
	db *gorm.DB
}

func NewSongs(db *gorm.DB) *Songs {
	return &Songs{db: db}
}

// Find returns the song with the given id.
func (s *Songs) Find(id snowflake.ID) (*Song, error) {
	var song Song
	if err := s.db.Take(&song, uint64(id)).Error; err != nil {
		return nil, err
	}
	return &song, nil
}

// Search returns songs whose title or album matches the query.
func (s *Songs) Search(q string, limit int) ([]Song, error) {
	var songs []Song
	err := s.db.
		Where("title LIKE ? OR album LIKE ?", "%"+q+"%", "%"+q+"%").
		Order("artist, album, title").
		Limit(limit).
		Find(&songs).Error
	return songs, err
}

// ByArtist returns songs whose artist matches the query.
func (s *Songs) ByArtist(q string, limit int) ([]Song, error) {
	var songs []Song
	err := s.db.
		Where("artist LIKE ?", "%"+q+"%").
		Order("album, title").
		Limit(limit).
		Find(&songs).Error
	return songs, err
}

// Upsert creates the song, or refreshes its metadata if a song with the
// same drive file id has been indexed before.
func (s *Songs) Upsert(song *Song) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"file_name", "title", "artist", "album", "path", "album_id",
		}),
	}).Create(song).Error
}
