// Package cmd implements the ajs subcommands: run, eval, fmt, init and
// repl.
//
// Commands receive the parsed [kong.Context] and the runtime options
// selected by global flags through their [context.Context]; see
// [WithContext] and [WithEngine].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration script.
	ConfigIdentifier = "config"
)
