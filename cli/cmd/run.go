package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/log"
)

// Run executes script sources in a single runtime.
type Run struct {
	Files []string `arg:"" help:"Source file(s) or '-' for stdin (default)." name:"file" optional:"" type:"existingfile"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := readSources(r.Files)
	if err != nil {
		return err
	}

	ast, err := lang.ParseReader(ctx, srcs, lang.WithLogger(log.Default()))
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "run"))
	}

	rt := lang.New(engineOptions(ctx, stdout)...)

	if _, err := rt.Run(ctx, ast); err != nil {
		return lang.WrapError(err).With(slog.String("command", "run"))
	}

	log.DebugContext(ctx, "run complete", sourceAttr(r.Files))

	return nil
}
