package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

type Context struct {
	Debug bool

	Dialector gorm.Dialector
	gorm.Config
	Logger *slog.Logger
}

var cli struct {
	Debug bool   `help:"Enable debug mode."`
	DSN   string `help:"Data source name of the catalog database." default:"music_bot.db" env:"SANDAYA_DSN"`

	Serve       ServeCmd       `cmd:"" help:"Serve the download gateway and the Telegram bot."`
	AutoMigrate AutoMigrateCmd `cmd:"" help:"Create or update the database schema."`
	Index       IndexCmd       `cmd:"" help:"Scan the cloud drive and rebuild the song catalog."`
	AddMember   AddMemberCmd   `cmd:"" help:"Grant or extend a membership."`
	BanMember   BanMemberCmd   `cmd:"" help:"Ban a member."`
	UnbanMember UnbanMemberCmd `cmd:"" help:"Unban a member."`
}

func main() {
	// secrets come from the environment; a .env file is a convenience for
	// local runs and its absence is not an error
	godotenv.Load()

	ctx := kong.Parse(&cli)
	err := ctx.Run(&Context{
		Debug:     cli.Debug,
		Dialector: newDialector(cli.DSN),
		Logger:    slog.New(slog.NewTextHandler(os.Stderr)),
	})
	ctx.FatalIfErrorf(err)
}
