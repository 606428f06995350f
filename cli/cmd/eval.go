package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/log"
)

// Eval executes code and prints the value of its last expression statement.
type Eval struct {
	Code   string   `help:"Code to evaluate after any sources."                   short:"e"`
	Output string   `default:"native" enum:"native,json,yaml" help:"Result format." short:"o"`
	Indent int      `default:"2"                              help:"Indent width for json and yaml results." short:"i"`
	Files  []string `arg:"" help:"Source file(s) to run first, or '-' for stdin." name:"file" optional:"" type:"existingfile"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	rt := lang.New(engineOptions(ctx, stdout)...)

	var result lang.Value = lang.Undefined

	// Sources are only read from stdin when no code is given.
	if len(e.Files) > 0 || e.Code == "" {
		srcs, err := readSources(e.Files)
		if err != nil {
			return err
		}

		ast, err := lang.ParseReader(ctx, srcs, lang.WithLogger(log.Default()))
		if err != nil {
			return lang.WrapError(err).With(slog.String("command", "eval"))
		}

		if result, err = rt.Run(ctx, ast); err != nil {
			return lang.WrapError(err).With(slog.String("command", "eval"))
		}
	}

	if e.Code != "" {
		if result, err = rt.Eval(ctx, statement(e.Code)); err != nil {
			return lang.WrapError(err).With(
				slog.String("command", "eval"),
				slog.String("code", e.Code),
			)
		}
	}

	log.DebugContext(ctx, "eval result",
		slog.String("type", lang.TypeOf(result)),
		slog.String("output", e.Output),
	)

	return writeResult(ctx, stdout, result, e.Output, e.Indent)
}

// statement terminates the last statement of code. A semicolon after a
// block parses as an empty statement.
func statement(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasSuffix(code, ";") {
		return code
	}

	return code + ";"
}

// writeResult prints v in the given output format. Native output writes
// strings verbatim and everything else in script literal syntax.
func writeResult(ctx context.Context, w io.Writer, v lang.Value, format string, indent int) error {
	switch format {
	case "json":
		var (
			data []byte
			err  error
		)

		if indent > 0 {
			data, err = json.MarshalIndent(lang.Export(v), "", strings.Repeat(" ", indent))
		} else {
			data, err = json.Marshal(lang.Export(v))
		}

		if err != nil {
			return ErrJSONMarshal.With(slog.String("type", lang.TypeOf(v))).Wrap(err)
		}

		_, err = fmt.Fprintln(w, string(data))

		return err

	case "yaml":
		opts := []yaml.EncodeOption{yaml.Indent(max(indent, 1))}
		if indent <= 0 {
			opts = append(opts, yaml.Flow(true))
		}

		data, err := yaml.MarshalContext(ctx, lang.Export(v), opts...)
		if err != nil {
			return ErrYAMLMarshal.With(slog.String("type", lang.TypeOf(v))).Wrap(err)
		}

		_, err = fmt.Fprint(w, string(data))

		return err
	}

	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)

		return err
	}

	_, err := fmt.Fprintln(w, lang.FormatResult(v))

	return err
}
