package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/ajs/pkg"
)

const (
	// baseConfig is the base name of the configuration files and the name of
	// the global variable read from the configuration script.
	baseConfig = "config"

	// scriptExt is the file extension of ajs sources.
	scriptExt = ".ajs"
)

// defaultDirMode is the default permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// configPath returns the path formed by joining the configuration directory
// with the given path elements.
//
// If no elements are given, it is equivalent to calling [pkg.ConfigDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
