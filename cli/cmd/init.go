package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/log"
	"github.com/ardnew/ajs/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init writes a configuration script holding the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	confPath := kongVar(ctx, ConfigIdentifier)
	if confPath == "" {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	ast, err := lang.ParseString(ctx, i.source(ctx))
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	err = ast.Format(ctx, file, defaultConfigIndent)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// source returns the configuration script declaring the global variable
// config with one property per flag that has a value.
func (i *Init) source(ctx context.Context) string {
	return fmt.Sprintf("var %s = %s;", ConfigIdentifier, lang.FormatResult(i.config(ctx)))
}

// config builds the configuration object from current flag values. Flag
// names have their hyphens replaced by underscores.
func (i *Init) config(ctx context.Context) lang.Object {
	obj := lang.NewDynamicObject(nil)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return obj
	}

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val, ok := flagValue(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		obj.SetValue(strings.ReplaceAll(flag.Name, "-", "_"), val)
	}

	return obj
}

// flagValue converts a kong flag value to a script value. Empty strings
// and slices have no value.
func flagValue(v any) (lang.Value, bool) {
	switch v := v.(type) {
	case nil:
		return nil, false

	case bool, int, float64:
		return v, true

	case int8, int16, int32, int64:
		return int(reflect.ValueOf(v).Int()), true

	case uint, uint8, uint16, uint32, uint64:
		return int(reflect.ValueOf(v).Uint()), true

	case float32:
		return float64(v), true

	case string:
		return v, v != ""

	case []string:
		if len(v) == 0 {
			return nil, false
		}

		elems := make([]lang.Value, len(v))
		for i, s := range v {
			elems[i] = s
		}

		return lang.NewArrayObject(nil, elems...), true
	}

	return fmt.Sprint(v), true
}
