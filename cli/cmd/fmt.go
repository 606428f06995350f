package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/log"
)

// Fmt parses a source and writes it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical ajs source (default)."`
	JSON   JSON   `cmd:""                    help:"Format the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the syntax tree as YAML."`
	AST    AST    `cmd:""                    help:"Print the syntax tree."`
}

// formatSource parses the source at path ("-" for stdin) and writes it
// with write. Failures are tagged with the format name.
func formatSource(
	ctx context.Context,
	path, name string,
	write func(context.Context, *lang.AST, io.Writer) error,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := readSources([]string{path})
	if err != nil {
		return err
	}

	ast, err := lang.ParseReader(ctx, srcs, lang.WithLogger(log.Default()))
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", name))
	}

	return write(ctx, ast, stdout)
}

// Native formats input as canonical ajs source.
type Native struct {
	Indent int `default:"2" help:"Indent width; 0 writes a single line." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source" type:"existingfile"`
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) error {
	return formatSource(ctx, f.Source, "native", func(ctx context.Context, ast *lang.AST, w io.Writer) error {
		return ast.Format(ctx, w, f.Indent)
	})
}

// JSON formats the syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source" type:"existingfile"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return formatSource(ctx, j.Source, "json", func(ctx context.Context, ast *lang.AST, w io.Writer) error {
		if err := ast.FormatJSON(ctx, w, j.Indent); err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		return nil
	})
}

// YAML formats the syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source" type:"existingfile"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return formatSource(ctx, y.Source, "yaml", func(ctx context.Context, ast *lang.AST, w io.Writer) error {
		if err := ast.FormatYAML(ctx, w, y.Indent); err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		return nil
	})
}

// AST prints the syntax tree as an indented outline.
type AST struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source" type:"existingfile"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) error {
	return formatSource(ctx, a.Source, "ast", func(ctx context.Context, ast *lang.AST, w io.Writer) error {
		return ast.Print(ctx, w)
	})
}
