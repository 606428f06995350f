package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ajs/host"
	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/log"
)

// Standard streams used by commands. Tests replace them.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable name from the context, or "".
func kongVar(ctx context.Context, name string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[name]
}

type engineKey struct{}

// WithEngine returns a new context.Context carrying runtime options applied
// by every command that evaluates scripts.
func WithEngine(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, engineKey{}, append(engineFrom(ctx), opts...))
}

func engineFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(engineKey{}).([]lang.Option)

	return opts
}

// engineOptions returns the runtime options for commands: the default
// logger, the standard host registry, print output to w, and the options
// stored by [WithEngine].
func engineOptions(ctx context.Context, w io.Writer) []lang.Option {
	return append([]lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithBridge(host.Std()),
		lang.WithOutput(w),
	}, engineFrom(ctx)...)
}

type (
	sourceFiles struct {
		read     []io.Reader
		multi    io.Reader
		hasStdin bool
	}

	// SourceFiles reads the concatenation of one or more script sources.
	SourceFiles interface {
		IsZero() bool
		Stdin() io.Reader
		io.Reader
		io.WriterTo
	}
)

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return len(s.read) == 0 }

// Stdin returns the standard input reader if it was included as a source,
// or nil otherwise.
func (s *sourceFiles) Stdin() io.Reader {
	if s.hasStdin {
		return stdin
	}

	return nil
}

// readers returns every source in order, stdin last, each followed by a
// line break so that sources never run together.
func (s *sourceFiles) readers() []io.Reader {
	readers := s.read
	if s.hasStdin {
		readers = append(readers, stdin)
	}

	out := make([]io.Reader, 0, 2*len(readers))
	for _, r := range readers {
		out = append(out, r, strings.NewReader("\n"))
	}

	return out
}

// Read implements io.Reader.
func (s *sourceFiles) Read(p []byte) (n int, err error) {
	if s.multi == nil {
		s.multi = io.MultiReader(s.readers()...)
	}

	return s.multi.Read(p)
}

// WriteTo implements io.WriterTo.
func (s *sourceFiles) WriteTo(w io.Writer) (n int64, err error) {
	return io.Copy(w, io.MultiReader(s.readers()...))
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// buildSourceFiles constructs a SourceFiles from the given source paths.
// It deduplicates readers by resolving symlinks and comparing device/inode
// pairs. All occurrences of "-" are replaced with a single stdin reader placed
// last so it reads after all regular files.
func buildSourceFiles(sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var srcs sourceFiles

	srcs.read = make([]io.Reader, 0, len(sources))
	seen := make(map[fileKey]struct{})

	stdinKey, hasStdinKey := fileKey{}, false
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil {
			stdinKey, hasStdinKey = makeFileKey(info)
		}
	}

	for _, src := range sources {
		if src == stdinSource {
			srcs.hasStdin = true

			continue
		}

		reader, key, ok := openUniqueFile(src, seen)
		if !ok {
			continue
		}

		// Stdin named as a file, such as /dev/stdin.
		if hasStdinKey && key == stdinKey {
			srcs.hasStdin = true

			continue
		}

		srcs.read = append(srcs.read, reader)
	}

	if len(srcs.read) == 0 && !srcs.hasStdin {
		return nil
	}

	return &srcs
}

// openUniqueFile opens the file at path if it hasn't been seen before.
// It resolves symlinks and uses device/inode to detect duplicates.
// Returns the opened file and true if successful, or nil and false if the file
// is a duplicate or cannot be opened.
func openUniqueFile(
	path string,
	seen map[fileKey]struct{},
) (io.Reader, fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fileKey{}, false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return nil, fileKey{}, false
	}

	if _, exists := seen[key]; exists {
		return nil, key, false
	}

	seen[key] = struct{}{}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, key, false
	}

	return file, key, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// readSources returns a reader over files, or over stdin when files is
// empty.
func readSources(files []string) (SourceFiles, error) {
	if len(files) == 0 {
		files = []string{stdinSource}
	}

	srcs := buildSourceFiles(files)
	if srcs == nil {
		return nil, ErrNoSource.With(sourceAttr(files))
	}

	return srcs, nil
}
