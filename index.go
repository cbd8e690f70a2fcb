package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/minkhant/sandaya/drive"
	"github.com/minkhant/sandaya/internal/snowflake"
	"github.com/minkhant/sandaya/models"
	"gorm.io/gorm"
)

type IndexCmd struct {
	DriveFlags
}

var audioExts = map[string]bool{
	".flac": true,
	".wav":  true,
	".m4a":  true,
	".dsf":  true,
}

// Run walks the drive and rebuilds the song and album catalog. Files
// whose download or tag read fails are logged and skipped so a single
// bad file cannot abort a full rescan.
func (c *IndexCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := configureDB(db); err != nil {
		return err
	}

	bg := context.Background()
	client := c.client(bg)
	songs := models.NewSongs(db)
	albums := models.NewAlbums(db)

	albumIDs := make(map[string]snowflake.ID) // drive folder id -> album row
	indexed := 0

	err = client.Walk(bg, func(parent drive.Item, path string, item drive.Item) error {
		if item.File == nil || !audioExts[strings.ToLower(filepath.Ext(item.Name))] {
			return nil
		}
		if item.DownloadURL == "" {
			ctx.Logger.Warn("no download url", "path", path)
			return nil
		}

		data, err := client.Download(bg, item.DownloadURL)
		if err != nil {
			ctx.Logger.Warn("download failed", "path", path, "err", err)
			return nil
		}
		meta := readTags(data)

		var albumID *snowflake.ID
		if parent.ID != "root" {
			id, ok := albumIDs[parent.ID]
			if !ok {
				album, err := albums.FindOrCreate(&models.Album{
					ID:       snowflake.Now(),
					Name:     parent.Name,
					Artist:   meta.artist,
					FolderID: parent.ID,
					Path:     filepath.Dir(path),
				})
				if err != nil {
					return err
				}
				id = album.ID
				albumIDs[parent.ID] = id
			}
			albumID = &id
		}

		if err := songs.Upsert(&models.Song{
			ID:       snowflake.Now(),
			FileID:   item.ID,
			FileName: item.Name,
			Title:    meta.title,
			Artist:   meta.artist,
			Album:    meta.album,
			Path:     path,
			AlbumID:  albumID,
		}); err != nil {
			return err
		}
		indexed++
		ctx.Logger.Info("indexed", "artist", meta.artist, "album", meta.album, "title", meta.title)
		return nil
	})
	if err != nil {
		return err
	}
	ctx.Logger.Info("indexing complete", "songs", indexed)
	return nil
}

type songTags struct {
	title, artist, album string
}

func readTags(data []byte) songTags {
	out := songTags{
		title:  "Unknown Title",
		artist: "Unknown Artist",
		album:  "Unknown Album",
	}
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return out
	}
	if v := m.Title(); v != "" {
		out.title = v
	}
	if v := m.Artist(); v != "" {
		out.artist = v
	}
	if v := m.Album(); v != "" {
		out.album = v
	}
	return out
}
