package models

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/minkhant/sandaya/internal/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockSong creates a song in the database.
func MockSong(t *testing.T, tx *gorm.DB, artist, album, title string) *Song {
	t.Helper()
	require := require.New(t)

	song := &Song{
		ID:       snowflake.Now(),
		FileID:   "file-" + snowflake.Now().String(),
		FileName: title + ".flac",
		Title:    title,
		Artist:   artist,
		Album:    album,
	}
	require.NoError(tx.Create(song).Error)
	return song
}

// MockAlbum creates an album in the database.
func MockAlbum(t *testing.T, tx *gorm.DB, artist, name string) *Album {
	t.Helper()
	require := require.New(t)

	album := &Album{
		ID:       snowflake.Now(),
		Name:     name,
		Artist:   artist,
		FolderID: "folder-" + snowflake.Now().String(),
	}
	require.NoError(tx.Create(album).Error)
	return album
}

// MockMember creates an active member expiring in d.
func MockMember(t *testing.T, tx *gorm.DB, telegramID int64, d time.Duration) *Member {
	t.Helper()
	require := require.New(t)

	member := &Member{
		TelegramID: telegramID,
		Status:     MemberActive,
		ExpiryDate: time.Now().Add(d),
	}
	require.NoError(tx.Create(member).Error)
	return member
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	// one shared-cache in-memory database per test, named after the test
	// so parallel tests cannot see each other's rows
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	require.NoError(err)

	err = db.AutoMigrate(AllTables()...)
	require.NoError(err)

	// enable foreign key constraints
	err = db.Exec("PRAGMA foreign_keys = ON").Error
	require.NoError(err)

	return db
}
