package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/minkhant/sandaya/models"
	"github.com/minkhant/sandaya/token"
)

const maxResults = 10

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "s_album":
		b.memberOnly(msg, b.handleSearchAlbum)
	case "s_artist":
		b.memberOnly(msg, b.handleSearchArtist)
	case "add_member":
		b.adminOnly(msg, b.handleAddMember)
	case "ban":
		b.adminOnly(msg, b.handleBan)
	case "unban":
		b.adminOnly(msg, b.handleUnban)
	default:
		b.reply(msg, "Unknown command. Try /s_album or /s_artist.")
	}
}

func (b *Bot) memberOnly(msg *tgbotapi.Message, fn func(*tgbotapi.Message)) {
	active, err := models.NewMembers(b.env.DB).IsActive(msg.From.ID)
	if err != nil {
		b.log().Error("membership check failed", "telegram_id", msg.From.ID, "err", err)
		b.reply(msg, "Something went wrong, please try again later.")
		return
	}
	if !active {
		b.reply(msg, "🚫 You are not an active member of this bot.")
		return
	}
	fn(msg)
}

func (b *Bot) adminOnly(msg *tgbotapi.Message, fn func(*tgbotapi.Message)) {
	if msg.From.ID != b.cfg.AdminID {
		b.reply(msg, "This command is for the admin only.")
		return
	}
	fn(msg)
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	active, err := models.NewMembers(b.env.DB).IsActive(msg.From.ID)
	if err != nil {
		b.log().Error("membership check failed", "telegram_id", msg.From.ID, "err", err)
		return
	}
	if active {
		b.reply(msg, fmt.Sprintf("👋 Welcome back, %s!\n\n✨ You are an active member. Search with /s_album <name> or /s_artist <name>.", msg.From.FirstName))
	} else {
		b.reply(msg, fmt.Sprintf("🚫 Sorry, %s.\n\nYou are not an authorized member of this bot.", msg.From.FirstName))
	}
}

func (b *Bot) handleSearchAlbum(msg *tgbotapi.Message) {
	q := strings.TrimSpace(msg.CommandArguments())
	if q == "" {
		b.reply(msg, "Usage: /s_album <album name>")
		return
	}
	albums, err := models.NewAlbums(b.env.DB).Search(q, maxResults)
	if err != nil {
		b.log().Error("album search failed", "q", q, "err", err)
		return
	}
	songs, err := models.NewSongs(b.env.DB).Search(q, maxResults)
	if err != nil {
		b.log().Error("song search failed", "q", q, "err", err)
		return
	}
	b.sendResults(msg, q, songs, albums)
}

func (b *Bot) handleSearchArtist(msg *tgbotapi.Message) {
	q := strings.TrimSpace(msg.CommandArguments())
	if q == "" {
		b.reply(msg, "Usage: /s_artist <artist name>")
		return
	}
	albums, err := models.NewAlbums(b.env.DB).ByArtist(q, maxResults)
	if err != nil {
		b.log().Error("album search failed", "q", q, "err", err)
		return
	}
	songs, err := models.NewSongs(b.env.DB).ByArtist(q, maxResults)
	if err != nil {
		b.log().Error("song search failed", "q", q, "err", err)
		return
	}
	b.sendResults(msg, q, songs, albums)
}

func (b *Bot) sendResults(msg *tgbotapi.Message, q string, songs []models.Song, albums []models.Album) {
	if len(songs) == 0 && len(albums) == 0 {
		b.reply(msg, fmt.Sprintf("No results for %q.", q))
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("🎵 Results for %q — pick one to get a download link:", q))
	out.ReplyMarkup = resultsKeyboard(songs, albums)
	b.send(out)
}

// resultsKeyboard lays out one button per result, albums first.
func resultsKeyboard(songs []models.Song, albums []models.Album) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, a := range albums {
		label := fmt.Sprintf("💿 %s — %s", a.Artist, a.Name)
		data := encodeCallback(token.AlbumTarget(a.ID))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	for _, s := range songs {
		label := fmt.Sprintf("🎧 %s — %s", s.Artist, s.Title)
		data := encodeCallback(token.SongTarget(s.ID))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log().Error("answer callback failed", "err", err)
	}
	if cb.Message == nil {
		return
	}

	active, err := models.NewMembers(b.env.DB).IsActive(cb.From.ID)
	if err != nil || !active {
		b.send(tgbotapi.NewMessage(cb.Message.Chat.ID, "🚫 You are not an active member of this bot."))
		return
	}

	target, err := decodeCallback(cb.Data)
	if err != nil {
		b.log().Error("bad callback payload", "data", cb.Data, "err", err)
		return
	}

	tok := b.tokens.Issue(target)
	var text string
	if target.Album() {
		text = fmt.Sprintf("📦 Your album link (valid %s, one use):\n%s/download_album/%s", b.cfg.AlbumTTL, b.cfg.BaseURL, tok)
	} else {
		text = fmt.Sprintf("⬇️ Your download link (valid %s, one use):\n%s/download/%s", b.cfg.SongTTL, b.cfg.BaseURL, tok)
	}
	b.send(tgbotapi.NewMessage(cb.Message.Chat.ID, text))
}

func (b *Bot) handleAddMember(msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		b.reply(msg, "Usage: /add_member <telegram_id> [days]")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(msg, "Usage: /add_member <telegram_id> [days]")
		return
	}
	days := 30
	if len(args) > 1 {
		if days, err = strconv.Atoi(args[1]); err != nil || days <= 0 {
			b.reply(msg, "Usage: /add_member <telegram_id> [days]")
			return
		}
	}
	member, err := models.NewMembers(b.env.DB).Add(id, "", time.Duration(days)*24*time.Hour)
	if err != nil {
		b.log().Error("add member failed", "telegram_id", id, "err", err)
		b.reply(msg, "Could not add the member.")
		return
	}
	b.reply(msg, fmt.Sprintf("✅ Member %d active until %s.", id, member.ExpiryDate.Format("2006-01-02")))
}

func (b *Bot) handleBan(msg *tgbotapi.Message) {
	b.setMemberStatus(msg, "ban", models.NewMembers(b.env.DB).Ban)
}

func (b *Bot) handleUnban(msg *tgbotapi.Message) {
	b.setMemberStatus(msg, "unban", models.NewMembers(b.env.DB).Unban)
}

func (b *Bot) setMemberStatus(msg *tgbotapi.Message, verb string, fn func(int64) error) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(msg, fmt.Sprintf("Usage: /%s <telegram_id>", verb))
		return
	}
	if err := fn(id); err != nil {
		b.log().Error(verb+" failed", "telegram_id", id, "err", err)
		b.reply(msg, fmt.Sprintf("Could not %s member %d.", verb, id))
		return
	}
	b.reply(msg, fmt.Sprintf("✅ Member %d %sned.", id, verb))
}
