package main

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/minkhant/sandaya/bot"
	"github.com/minkhant/sandaya/drive"
	"github.com/minkhant/sandaya/gateway"
	"github.com/minkhant/sandaya/internal/httpx"
	"github.com/minkhant/sandaya/models"
	"github.com/minkhant/sandaya/token"
	"github.com/pkg/group"
	"gorm.io/gorm"
)

// DriveFlags are the client-credential grant parameters for the drive
// hosting the library, shared by serve and index.
type DriveFlags struct {
	TenantID     string `required:"" env:"O365_TENANT_ID" help:"Azure AD tenant hosting the drive."`
	ClientID     string `required:"" env:"O365_CLIENT_ID" help:"Application (client) id."`
	ClientSecret string `required:"" env:"O365_CLIENT_SECRET" help:"Application client secret."`
	DriveUserID  string `required:"" env:"O365_USER_ID" help:"User id of the drive owner."`
}

func (f *DriveFlags) client(ctx context.Context) *drive.Client {
	return drive.NewClient(ctx, drive.Config{
		TenantID:     f.TenantID,
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		UserID:       f.DriveUserID,
	})
}

type ServeCmd struct {
	Addr          string        `help:"address to listen" default:":8080" env:"SANDAYA_ADDR"`
	BaseURL       string        `required:"" help:"public base URL embedded in download links" env:"SANDAYA_BASE_URL"`
	TelegramToken string        `required:"" env:"TELEGRAM_BOT_TOKEN" help:"Telegram bot token."`
	AdminID       int64         `env:"ADMIN_USER_ID" help:"Telegram id allowed to manage members."`
	SongTTL       time.Duration `default:"60s" help:"Validity window of song download links."`
	AlbumTTL      time.Duration `default:"30m" help:"Validity window of album share links."`
	Poll          bool          `help:"Long-poll Telegram for updates instead of serving a webhook."`

	DriveFlags
}

func (s *ServeCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := configureDB(db); err != nil {
		return err
	}

	env := &models.Env{DB: db, Logger: ctx.Logger}
	tokens := token.NewMemoryStore(s.SongTTL, s.AlbumTTL)
	resolver := s.client(context.Background())

	api, err := tgbotapi.NewBotAPI(s.TelegramToken)
	if err != nil {
		return err
	}
	ctx.Logger.Info("authorized on telegram", "account", api.Self.UserName)

	b := bot.New(api, env, tokens, bot.Config{
		BaseURL:  strings.TrimSuffix(s.BaseURL, "/"),
		AdminID:  s.AdminID,
		SongTTL:  s.SongTTL,
		AlbumTTL: s.AlbumTTL,
	})

	genv := &gateway.Env{Env: env, Tokens: tokens, Resolver: resolver}
	envFn := func(r *http.Request) *gateway.Env { return genv }

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	r.Get("/download/{token}", httpx.HandlerFunc(envFn, gateway.Download))
	r.Get("/download_album/{token}", httpx.HandlerFunc(envFn, gateway.DownloadAlbum))
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/songs", httpx.HandlerFunc(envFn, gateway.SongsIndex))
		r.Get("/albums", httpx.HandlerFunc(envFn, gateway.AlbumsIndex))
	})
	if !s.Poll {
		r.Post("/telegram/webhook", b.WebhookHandler())
	}

	svr := &http.Server{
		Addr:    s.Addr,
		Handler: r,
		// WriteTimeout bounds a whole response; it has to cover streaming
		// a full album-quality file, not just an API reply.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}

	g := group.New(context.Background())
	g.Add(func(ctx context.Context) error {
		errc := make(chan error, 1)
		go func() { errc <- svr.ListenAndServe() }()
		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return svr.Shutdown(sctx)
		}
	})
	if s.Poll {
		g.Add(func(ctx context.Context) error { return b.Poll(ctx.Done()) })
	}
	g.Add(func(ctx context.Context) error {
		tick := time.NewTicker(time.Minute)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-tick.C:
				tokens.Sweep()
			}
		}
	})
	return g.Wait()
}
