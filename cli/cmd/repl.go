package cmd

import (
	"context"
	"io"

	"github.com/ardnew/ajs/cli/cmd/repl"
	"github.com/ardnew/ajs/host"
	"github.com/ardnew/ajs/log"
)

// Repl starts an interactive session after running any given sources.
type Repl struct {
	Files []string `arg:"" help:"Source file(s) to preload, or '-' for stdin." name:"file" optional:"" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	var src io.Reader

	if len(r.Files) > 0 {
		srcs, err := readSources(r.Files)
		if err != nil {
			return err
		}

		src = srcs
	}

	return repl.Run(
		ctx,
		src,
		kongVar(ctx, CacheIdentifier),
		log.Default(),
		host.Std(),
		engineOptions(ctx, io.Discard)...,
	)
}
