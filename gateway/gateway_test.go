package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/minkhant/sandaya/drive"
	"github.com/minkhant/sandaya/internal/httpx"
	"github.com/minkhant/sandaya/internal/snowflake"
	"github.com/minkhant/sandaya/models"
	"github.com/minkhant/sandaya/token"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	require.NoError(err)
	require.NoError(db.AutoMigrate(models.AllTables()...))
	return db
}

type stubResolver struct {
	fileURL  string
	fileName string
	shareURL string
	err      error
}

func (s *stubResolver) FileLink(ctx context.Context, itemID string) (string, string, error) {
	return s.fileURL, s.fileName, s.err
}

func (s *stubResolver) FolderLink(ctx context.Context, folderID string) (string, error) {
	return s.shareURL, s.err
}

func setupEnv(t *testing.T, resolver Resolver) *Env {
	t.Helper()
	return &Env{
		Env: &models.Env{
			DB:     setupTestDB(t),
			Logger: slog.New(slog.NewTextHandler(io.Discard)),
		},
		Tokens:   token.NewMemoryStore(time.Minute, 30*time.Minute),
		Resolver: resolver,
	}
}

func router(env *Env) http.Handler {
	envFn := func(r *http.Request) *Env { return env }
	r := chi.NewRouter()
	r.Get("/download/{token}", httpx.HandlerFunc(envFn, Download))
	r.Get("/download_album/{token}", httpx.HandlerFunc(envFn, DownloadAlbum))
	r.Get("/api/v1/songs", httpx.HandlerFunc(envFn, SongsIndex))
	r.Get("/api/v1/albums", httpx.HandlerFunc(envFn, AlbumsIndex))
	return r
}

func TestDownload(t *testing.T) {
	payload := []byte("these are the fixture bytes of track.flac")

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/flac")
		w.Write(payload)
	}))
	defer upstream.Close()

	t.Run("streams the file once", func(t *testing.T) {
		require := require.New(t)

		env := setupEnv(t, &stubResolver{fileURL: upstream.URL, fileName: "track.flac"})
		song := &models.Song{ID: snowflake.Now(), FileID: "ABC123", FileName: "track.flac"}
		require.NoError(env.DB.Create(song).Error)

		tok := env.Tokens.Issue(token.SongTarget(song.ID))

		srv := httptest.NewServer(router(env))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/download/" + tok)
		require.NoError(err)
		defer resp.Body.Close()
		require.Equal(http.StatusOK, resp.StatusCode)
		require.Equal(`attachment; filename="track.flac"`, resp.Header.Get("Content-Disposition"))
		require.Equal("audio/flac", resp.Header.Get("Content-Type"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(err)
		require.Equal(payload, body)

		// the same link cannot be replayed
		resp2, err := http.Get(srv.URL + "/download/" + tok)
		require.NoError(err)
		resp2.Body.Close()
		require.Equal(http.StatusGone, resp2.StatusCode)
	})

	t.Run("unknown token", func(t *testing.T) {
		require := require.New(t)

		env := setupEnv(t, &stubResolver{})
		srv := httptest.NewServer(router(env))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/download/no-such-token")
		require.NoError(err)
		resp.Body.Close()
		require.Equal(http.StatusGone, resp.StatusCode)
	})

	t.Run("catalog miss burns the token", func(t *testing.T) {
		require := require.New(t)

		env := setupEnv(t, &stubResolver{fileURL: upstream.URL})
		tok := env.Tokens.Issue(token.SongTarget(snowflake.Now()))

		srv := httptest.NewServer(router(env))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/download/" + tok)
		require.NoError(err)
		resp.Body.Close()
		require.Equal(http.StatusNotFound, resp.StatusCode)

		resp2, err := http.Get(srv.URL + "/download/" + tok)
		require.NoError(err)
		resp2.Body.Close()
		require.Equal(http.StatusGone, resp2.StatusCode)
	})

	t.Run("upstream resolve failure", func(t *testing.T) {
		require := require.New(t)

		env := setupEnv(t, &stubResolver{err: fmt.Errorf("%w: boom", drive.ErrResolve)})
		song := &models.Song{ID: snowflake.Now(), FileID: "ABC123", FileName: "track.flac"}
		require.NoError(env.DB.Create(song).Error)
		tok := env.Tokens.Issue(token.SongTarget(song.ID))

		srv := httptest.NewServer(router(env))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/download/" + tok)
		require.NoError(err)
		resp.Body.Close()
		require.Equal(http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("upstream auth failure", func(t *testing.T) {
		require := require.New(t)

		env := setupEnv(t, &stubResolver{err: fmt.Errorf("%w: denied", drive.ErrAuth)})
		song := &models.Song{ID: snowflake.Now(), FileID: "ABC123", FileName: "track.flac"}
		require.NoError(env.DB.Create(song).Error)
		tok := env.Tokens.Issue(token.SongTarget(song.ID))

		srv := httptest.NewServer(router(env))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/download/" + tok)
		require.NoError(err)
		resp.Body.Close()
		require.Equal(http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("album token on the song endpoint", func(t *testing.T) {
		require := require.New(t)

		env := setupEnv(t, &stubResolver{})
		tok := env.Tokens.Issue(token.AlbumTarget(snowflake.Now()))

		srv := httptest.NewServer(router(env))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/download/" + tok)
		require.NoError(err)
		resp.Body.Close()
		require.Equal(http.StatusGone, resp.StatusCode)
	})
}

func TestDownloadAlbum(t *testing.T) {
	require := require.New(t)

	env := setupEnv(t, &stubResolver{shareURL: "https://1drv.example.com/s/F1"})
	album := &models.Album{ID: snowflake.Now(), Name: "Blue Train", FolderID: "F1"}
	require.NoError(env.DB.Create(album).Error)
	tok := env.Tokens.Issue(token.AlbumTarget(album.ID))

	srv := httptest.NewServer(router(env))
	defer srv.Close()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(srv.URL + "/download_album/" + tok)
	require.NoError(err)
	resp.Body.Close()
	require.Equal(http.StatusFound, resp.StatusCode)
	require.Equal("https://1drv.example.com/s/F1", resp.Header.Get("Location"))

	resp2, err := client.Get(srv.URL + "/download_album/" + tok)
	require.NoError(err)
	resp2.Body.Close()
	require.Equal(http.StatusGone, resp2.StatusCode)
}

func TestSearchAPI(t *testing.T) {
	require := require.New(t)

	env := setupEnv(t, &stubResolver{})
	require.NoError(env.DB.Create(&models.Song{
		ID: snowflake.Now(), FileID: "ABC123", FileName: "giant_steps.flac",
		Title: "Giant Steps", Artist: "John Coltrane", Album: "Giant Steps",
	}).Error)

	srv := httptest.NewServer(router(env))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/songs?q=Giant")
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.Contains(string(body), "Giant Steps")

	resp2, err := http.Get(srv.URL + "/api/v1/songs?q=Miles")
	require.NoError(err)
	defer resp2.Body.Close()
	body2, err := io.ReadAll(resp2.Body)
	require.NoError(err)
	require.Equal("[]", string(body2))
}
