package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ajs/cli/cmd"
	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/pkg"
)

// CLI is the top-level command-line interface for ajs.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version  kong.VersionFlag `help:"Print version and exit" short:"V"`
	MaxDepth int              `default:"${maxDepth}" help:"Maximum nested function calls"`

	Run  cmd.Run  `cmd:"" default:"withargs" help:"Execute script sources"`
	Eval cmd.Eval `cmd:""                    help:"Evaluate code and print its result"`
	Fmt  cmd.Fmt  `cmd:""                    help:"Format script sources"`
	Init cmd.Init `cmd:""                    help:"Initialize configuration script"`
	Repl cmd.Repl `cmd:""                    help:"Start an interactive session"`
}

// Run executes the ajs CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + scriptExt)

	vars := kong.Vars{
		"version":            strings.TrimSpace(pkg.Version),
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Configure the logger before kong reports anything.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(ctx, baseConfig), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithEngine(ctx, lang.WithMaxDepth(cli.MaxDepth))

	// TimeLayout and Caller are only applied here.
	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx)
}
