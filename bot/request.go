package bot

import (
	"fmt"
	"strings"

	"github.com/minkhant/sandaya/internal/snowflake"
	"github.com/minkhant/sandaya/token"
)

// Callback payloads are the only place a download request exists as a
// string. They are decoded into a token.Target at this boundary and the
// rest of the code never parses them.

const (
	songPrefix  = "dl:"
	albumPrefix = "al:"
)

func encodeCallback(t token.Target) string {
	if t.Album() {
		return albumPrefix + t.AlbumID.String()
	}
	return songPrefix + t.SongID.String()
}

func decodeCallback(data string) (token.Target, error) {
	switch {
	case strings.HasPrefix(data, songPrefix):
		id, err := snowflake.Parse(data[len(songPrefix):])
		if err != nil {
			return token.Target{}, fmt.Errorf("bad song callback %q: %w", data, err)
		}
		return token.SongTarget(id), nil
	case strings.HasPrefix(data, albumPrefix):
		id, err := snowflake.Parse(data[len(albumPrefix):])
		if err != nil {
			return token.Target{}, fmt.Errorf("bad album callback %q: %w", data, err)
		}
		return token.AlbumTarget(id), nil
	default:
		return token.Target{}, fmt.Errorf("unknown callback payload %q", data)
	}
}
