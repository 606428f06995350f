package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ajs/host"
	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration scripts.
//
// The script runs in a fresh runtime with the standard host registry. The
// own properties of the global variable called name then become flag
// values:
//
//	var config = {
//	  log_level: "debug",
//	  log_format: "json",
//	  log_pretty: env.has("AJS_PRETTY")
//	};
//
// Property names may use underscores in place of the hyphens of flag names.
// A script that fails to parse or run, or that does not define name as an
// object, configures nothing. Command-line flags override script values.
func resolve(ctx context.Context, name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		ast, err := lang.ParseReader(ctx, r, lang.WithLogger(log.Default()))
		if err != nil {
			log.WarnContext(ctx, "config script ignored", slog.Any("error", err))

			return config{}, nil
		}

		rt := lang.New(
			lang.WithBridge(host.Std()),
			lang.WithLogger(log.Default()),
		)

		if _, err := rt.Run(ctx, ast); err != nil {
			log.WarnContext(ctx, "config script ignored", slog.Any("error", err))

			return config{}, nil
		}

		obj, ok := rt.Get(name).(lang.Object)
		if !ok {
			return config{}, nil
		}

		return objectToMap(obj), nil
	}
}

// config implements [kong.Resolver] for configuration scripts.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

// objectToMap converts the own enumerable properties of obj to flag values.
func objectToMap(obj lang.Object) config {
	result := make(config)

	for _, key := range obj.Names() {
		v, _ := obj.Own(key)
		result[key] = flagValue(lang.Export(v))
	}

	return result
}

// flagValue adapts an exported script value for kong, which parses numbers
// from their string form.
func flagValue(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out
	}

	return v
}
