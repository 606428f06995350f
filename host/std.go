package host

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
)

// Std returns a registry preloaded with the standard host namespaces:
//
//   - strings: the [strings] functions and the Builder type
//   - math: common [math] functions and constants
//   - path: [path/filepath] manipulation
//   - env: process environment access
//   - mung: PATH-style list munging
//   - expr: expr-lang evaluation against script objects
func Std() *Registry {
	r := NewRegistry()

	registerAll(r, "strings", map[string]any{
		"Contains":   strings.Contains,
		"Count":      strings.Count,
		"EqualFold":  strings.EqualFold,
		"Fields":     strings.Fields,
		"HasPrefix":  strings.HasPrefix,
		"HasSuffix":  strings.HasSuffix,
		"Index":      strings.Index,
		"Join":       strings.Join,
		"LastIndex":  strings.LastIndex,
		"Repeat":     strings.Repeat,
		"Replace":    strings.Replace,
		"ReplaceAll": strings.ReplaceAll,
		"Split":      strings.Split,
		"ToLower":    strings.ToLower,
		"ToUpper":    strings.ToUpper,
		"Trim":       strings.Trim,
		"TrimPrefix": strings.TrimPrefix,
		"TrimSpace":  strings.TrimSpace,
		"TrimSuffix": strings.TrimSuffix,
		"Builder": NewType("strings.Builder", func() *strings.Builder {
			return new(strings.Builder)
		}),
	})

	registerAll(r, "math", map[string]any{
		"Abs":    math.Abs,
		"Ceil":   math.Ceil,
		"Floor":  math.Floor,
		"Max":    math.Max,
		"Min":    math.Min,
		"Mod":    math.Mod,
		"Pow":    math.Pow,
		"Round":  math.Round,
		"Sqrt":   math.Sqrt,
		"Trunc":  math.Trunc,
		"Log":    math.Log,
		"Exp":    math.Exp,
		"Pi":     math.Pi,
		"E":      math.E,
		"MaxInt": math.MaxInt,
		"MinInt": math.MinInt,
	})

	registerAll(r, "path", map[string]any{
		"Abs":   filepath.Abs,
		"Base":  filepath.Base,
		"Clean": filepath.Clean,
		"Dir":   filepath.Dir,
		"Ext":   filepath.Ext,
		"IsAbs": filepath.IsAbs,
		"Join":  filepath.Join,
		"Match": filepath.Match,
		"Rel":   pathRel,
		"Split": filepath.Split,
		"Sep":   string(filepath.Separator),
		"List":  string(filepath.ListSeparator),
	})

	registerAll(r, "env", map[string]any{
		"get":  os.Getenv,
		"has":  envHas,
		"list": envList,
	})

	registerAll(r, "mung", map[string]any{
		"prefix":   mungPrefix,
		"prefixIf": mungPrefixIf,
	})

	registerAll(r, "expr", map[string]any{
		"eval": exprEval,
	})

	return r
}

func registerAll(r *Registry, ns string, members map[string]any) {
	for name, v := range members {
		r.Register(ns+"."+name, v)
	}
}

// pathRel returns the path of target relative to base, both made absolute
// first.
func pathRel(base, target string) (string, error) {
	b, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}

	t, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}

	return filepath.Rel(b, t)
}

func envHas(key string) bool {
	_, ok := os.LookupEnv(key)

	return ok
}

// envList returns the sorted names of all environment variables.
func envList() []string {
	env := os.Environ()
	names := make([]string, 0, len(env))

	for _, kv := range env {
		if name, _, ok := strings.Cut(kv, "="); ok && name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// mungPrefix moves or inserts items at the front of the list, removing
// duplicates.
func mungPrefix(list string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String()
}

// mungPrefixIf is mungPrefix keeping only items accepted by pred.
func mungPrefixIf(list string, pred func(string) bool, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
		mung.WithFilter(pred),
	).String()
}

// exprEval compiles and runs an expr-lang program with env as its
// environment.
func exprEval(src string, env map[string]any) (any, error) {
	if env == nil {
		env = map[string]any{}
	}

	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, err
	}

	return expr.Run(program, env)
}
