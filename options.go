package regf

import (
	"io"
	"log/slog"

	"github.com/regfkit/regf/internal/codepage"
)

// Options configures Open. The zero value is usable: codepage defaults to
// Windows-1252, caches get reasonable default sizes, and logging is
// discarded, matching a library that must not print anything unless asked.
type Options struct {
	// Codepage is the ANSI/OEM codepage used to decode KEY_COMP_NAME and
	// VALUE_COMP_NAME strings. Defaults to codepage.Default (1252).
	Codepage codepage.ID

	// KeyCacheSize and ValueCacheSize bound the number of decoded nk/vk
	// items an Engine keeps around. Zero uses the internal default.
	KeyCacheSize   int
	ValueCacheSize int
	// BinCacheSize bounds the number of raw hive-bin payloads cached
	// alongside the decoded item caches. Zero uses the internal default.
	BinCacheSize int

	// Logger receives structured diagnostic events. The only event logged
	// is a Debug "opened hive" record with the format version and dirty
	// state; corrupt keys and other traversal problems are not logged. A
	// nil Logger discards everything.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o Options) codepage() codepage.ID {
	if o.Codepage == 0 {
		return codepage.Default
	}
	return o.Codepage
}
