package gateway

import (
	"net/http"

	"github.com/minkhant/sandaya/internal/httpx"
	"github.com/minkhant/sandaya/internal/snowflake"
	"github.com/minkhant/sandaya/internal/to"
	"github.com/minkhant/sandaya/models"
)

// read-only catalog search, used by operators to spot check the index

type searchParams struct {
	Q     string `schema:"q"`
	Limit int    `schema:"limit"`
}

func (p *searchParams) limit() int {
	if p.Limit <= 0 || p.Limit > 100 {
		return 20
	}
	return p.Limit
}

type Song struct {
	ID       snowflake.ID `json:"id,string"`
	Title    string       `json:"title"`
	Artist   string       `json:"artist"`
	Album    string       `json:"album"`
	FileName string       `json:"file_name"`
}

type Album struct {
	ID     snowflake.ID `json:"id,string"`
	Name   string       `json:"name"`
	Artist string       `json:"artist"`
}

func SongsIndex(env *Env, w http.ResponseWriter, r *http.Request) error {
	var params searchParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	songs, err := models.NewSongs(env.DB).Search(params.Q, params.limit())
	if err != nil {
		return err
	}
	return to.JSON(w, serialiseSongs(songs))
}

func AlbumsIndex(env *Env, w http.ResponseWriter, r *http.Request) error {
	var params searchParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	albums, err := models.NewAlbums(env.DB).Search(params.Q, params.limit())
	if err != nil {
		return err
	}
	return to.JSON(w, serialiseAlbums(albums))
}

func serialiseSongs(songs []models.Song) []Song {
	out := make([]Song, 0, len(songs))
	for _, s := range songs {
		out = append(out, Song{
			ID:       s.ID,
			Title:    s.Title,
			Artist:   s.Artist,
			Album:    s.Album,
			FileName: s.FileName,
		})
	}
	return out
}

func serialiseAlbums(albums []models.Album) []Album {
	out := make([]Album, 0, len(albums))
	for _, a := range albums {
		out = append(out, Album{
			ID:     a.ID,
			Name:   a.Name,
			Artist: a.Artist,
		})
	}
	return out
}
