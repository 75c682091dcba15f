package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/scfg/lang/lexer"
	"github.com/ardnew/scfg/lang/token"
)

// tokenCache stores token sequences keyed by the xxh3 hash of their source.
// Tokens are immutable, so a cached sequence is shared by every load of the
// same text.
var tokenCache sync.Map

// cached is one tokenization, computed at most once.
type cached struct {
	once   sync.Once
	source string
	toks   []token.Token
	err    error
}

// tokenize returns the tokens of text, consulting the cache first.
func tokenize(text string) ([]token.Token, error) {
	key := xxh3.HashString(text)

	value, _ := tokenCache.LoadOrStore(key, &cached{source: text})

	c, ok := value.(*cached)
	if !ok || c.source != text {
		// Hash collision: tokenize without caching.
		return lexer.Tokenize(text)
	}

	c.once.Do(func() {
		c.toks, c.err = lexer.Tokenize(text)
	})

	return c.toks, c.err
}

// LoadReader reads all of r and loads it like [Tree.Load]. Reads are
// prefetched asynchronously and the tokenization of identical input is
// cached across trees.
func (t *Tree) LoadReader(ctx context.Context, r io.Reader) error {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	text := string(data)

	t.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.String("source_hash", strconv.FormatUint(xxh3.HashString(text), 16)),
		slog.Bool("read_ahead", true),
	)

	return t.Load(ctx, text)
}

// ClearCache removes all cached tokenizations.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	tokenCache.Clear()
}
