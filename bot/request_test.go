package bot

import (
	"testing"

	"github.com/minkhant/sandaya/internal/snowflake"
	"github.com/minkhant/sandaya/models"
	"github.com/minkhant/sandaya/token"
	"github.com/stretchr/testify/require"
)

func TestCallbackCodec(t *testing.T) {
	t.Run("song round trip", func(t *testing.T) {
		require := require.New(t)

		id := snowflake.Now()
		target, err := decodeCallback(encodeCallback(token.SongTarget(id)))
		require.NoError(err)
		require.False(target.Album())
		require.Equal(id, target.SongID)
	})

	t.Run("album round trip", func(t *testing.T) {
		require := require.New(t)

		id := snowflake.Now()
		target, err := decodeCallback(encodeCallback(token.AlbumTarget(id)))
		require.NoError(err)
		require.True(target.Album())
		require.Equal(id, target.AlbumID)
	})

	t.Run("rejects junk", func(t *testing.T) {
		require := require.New(t)

		for _, data := range []string{"", "dl:", "dl:xyz", "al:-1", "share:1", "42"} {
			_, err := decodeCallback(data)
			require.Error(err, "payload %q", data)
		}
	})
}

func TestResultsKeyboard(t *testing.T) {
	require := require.New(t)

	songs := []models.Song{
		{ID: 1, Title: "Naima", Artist: "John Coltrane"},
	}
	albums := []models.Album{
		{ID: 2, Name: "Giant Steps", Artist: "John Coltrane"},
	}

	kb := resultsKeyboard(songs, albums)
	require.Len(kb.InlineKeyboard, 2)

	// albums first, then songs
	require.Equal("al:2", *kb.InlineKeyboard[0][0].CallbackData)
	require.Equal("dl:1", *kb.InlineKeyboard[1][0].CallbackData)
}
