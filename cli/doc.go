// Package cli contains the command line interface for ajs.
//
// # Usage
//
// Scripts run by default; the other commands evaluate, format, and explore
// them:
//
//	ajs script.ajs                  # run sources
//	ajs eval -e 'strings.ToUpper("x")'
//	ajs eval -o json config.ajs -e 'config'
//	ajs fmt native -i 4 script.ajs  # rewrite in canonical form
//	ajs fmt json script.ajs         # syntax tree as JSON
//	ajs repl lib.ajs                # interactive session over lib.ajs
//	ajs init                        # write the configuration script
//
// Sources are concatenated in order with '-' (stdin) read last. A file named
// more than once, through any path or symlink, is read once.
//
// # Configuration
//
// Flag defaults are read from two files in the user configuration directory:
// config.json, and the configuration script config.ajs. The script runs in a
// fresh runtime with the standard host registry, and the own properties of
// its global variable config become flag values:
//
//	var config = {
//	  log_level: "debug",
//	  log_pretty: env.has("AJS_PRETTY"),
//	  max_depth: 256
//	};
//
// Property names may use underscores in place of the hyphens of flag names.
// A script that fails is logged at warn level and ignored. Flags given on
// the command line take precedence over both files.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --[no-]log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// Logging flags take effect before the rest of the command line is parsed.
//
// # Profiling Options
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: the pprof
//     directory under the user cache directory)
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o ajs .
package cli
