package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// globalCache stores parsed programs keyed by source hash.
var globalCache sync.Map

// state parses one source at most once, however many callers race on it.
type state struct {
	once sync.Once
	ast  *AST
	err  error
}

// ParseReader reads a complete program from r and parses it. Programs are
// memoized by the hash of their source, so repeated reads of identical
// sources share one syntax tree. The returned tree must not be modified.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*AST, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	cfg := makeConfig(opts...)

	cfg.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return parseCached(ctx, string(data), cfg, opts...)
}

func parseCached(ctx context.Context, src string, cfg config, opts ...Option) (*AST, error) {
	hash := xxh3.HashString(src)
	key := strconv.FormatUint(hash, 36)

	entry := new(state)
	value, hit := globalCache.LoadOrStore(key, entry)

	cached, ok := value.(*state)
	if !ok {
		return nil, ErrReadInput.With(slog.String("issue", "invalid cache entry"))
	}

	cfg.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit),
	)

	cached.once.Do(func() {
		cached.ast, cached.err = ParseString(ctx, src, opts...)
		if cached.err != nil {
			cached.err = WrapError(cached.err).With(slog.Int("source_length", len(src)))
		}
	})

	return cached.ast, cached.err
}

// ClearCache discards all memoized programs.
func ClearCache() {
	globalCache.Clear()
}
