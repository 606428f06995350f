// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Time formatting, caller information, colorized output, and the output
// format are applied at logger creation time using functional options.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("script loaded", slog.String("path", path))
//	logger.Error("run failed", slog.Any("error", err))
//
// The zero [Logger] discards everything, so a component can hold one as a
// plain field and log unconditionally.
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// [Logger.Wrap] derives a logger from an existing one with further options
// applied.
//
// # Package Logger
//
// The package-level functions write through a default logger that starts
// out as a text logger on [os.Stderr]. [Config] reconfigures it and
// [SetDefault] replaces it:
//
//	log.Config(log.WithLevel(log.ParseLevel(flags.Level)))
//	log.Info("ready")
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-node evaluator
// and parser events. Records below the configured level are discarded
// before any attribute is resolved.
//
// # Pretty Output
//
// [WithPretty] selects a colorized handler. In [FormatText] each record is
// one line of key=value pairs; in [FormatJSON] each record is an indented
// block. Grouped attributes, including those produced by [slog.LogValuer]
// implementations such as the engine's error type, are flattened to dotted
// keys.
package log
