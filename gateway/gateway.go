// Package gateway is the HTTP boundary that redeems download tokens and
// delivers content.
//
// A request consumes its token first, before any upstream call. A token
// is therefore burned even when a later stage fails; the member has to
// request a fresh link. This keeps redemption at-most-once without a
// two-phase protocol.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/minkhant/sandaya/drive"
	"github.com/minkhant/sandaya/internal/httpx"
	"github.com/minkhant/sandaya/models"
	"github.com/minkhant/sandaya/token"
	"gorm.io/gorm"
)

// A Resolver turns opaque drive identifiers into transient URLs.
type Resolver interface {
	FileLink(ctx context.Context, itemID string) (url, name string, err error)
	FolderLink(ctx context.Context, folderID string) (url string, err error)
}

type Env struct {
	*models.Env
	Tokens   token.Store
	Resolver Resolver

	// Client fetches resolved download URLs. http.DefaultClient if nil.
	Client *http.Client
}

func (e *Env) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}

// Download redeems a song token and streams the file to the caller.
func Download(env *Env, w http.ResponseWriter, r *http.Request) error {
	target, err := redeem(env, r)
	if err != nil {
		return err
	}
	if target.Album() {
		return httpx.Error(http.StatusGone, errors.New("not a song token"))
	}

	song, err := models.NewSongs(env.DB).Find(target.SongID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Error(http.StatusNotFound, fmt.Errorf("song %s no longer in catalog", target.SongID))
		}
		return err
	}

	url, _, err := env.Resolver.FileLink(r.Context(), song.FileID)
	if err != nil {
		return upstreamError(err)
	}
	return stream(env, w, r, url, song.FileName)
}

// DownloadAlbum redeems an album token and redirects to the folder's
// share link.
func DownloadAlbum(env *Env, w http.ResponseWriter, r *http.Request) error {
	target, err := redeem(env, r)
	if err != nil {
		return err
	}
	if !target.Album() {
		return httpx.Error(http.StatusGone, errors.New("not an album token"))
	}

	album, err := models.NewAlbums(env.DB).Find(target.AlbumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Error(http.StatusNotFound, fmt.Errorf("album %s no longer in catalog", target.AlbumID))
		}
		return err
	}

	url, err := env.Resolver.FolderLink(r.Context(), album.FolderID)
	if err != nil {
		return upstreamError(err)
	}
	return httpx.Redirect(w, url)
}

// redeem consumes the token in the request path. This is the only store
// mutation a request performs.
func redeem(env *Env, r *http.Request) (token.Target, error) {
	tok := chi.URLParam(r, "token")
	target, err := env.Tokens.Consume(tok)
	if err != nil {
		return token.Target{}, httpx.Error(http.StatusGone, fmt.Errorf("link invalid or expired: %w", err))
	}
	return target, nil
}

func upstreamError(err error) error {
	if errors.Is(err, drive.ErrAuth) {
		return httpx.Error(http.StatusInternalServerError, err)
	}
	return httpx.Error(http.StatusBadGateway, err)
}

// stream forwards the file at url to the client without buffering it.
func stream(env *Env, w http.ResponseWriter, r *http.Request, url, filename string) error {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return httpx.Error(http.StatusBadGateway, err)
	}
	resp, err := env.client().Do(req)
	if err != nil {
		return httpx.Error(http.StatusBadGateway, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpx.Error(http.StatusBadGateway, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", contentType(resp))
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		// the status is already written; the token is burned either way
		env.Log().Error("streaming interrupted", "url", r.URL.Path, "err", err)
	}
	return nil
}

func contentType(resp *http.Response) string {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
