// Package host connects scripts to Go values through reflection.
//
// A [Registry] implements [lang.Bridge]. Values are registered under dotted
// names, and every segment but the last becomes a [Namespace]:
//
//	reg := host.NewRegistry()
//	reg.Register("strings.ToUpper", strings.ToUpper)
//	reg.Register("strings.Builder", host.NewType("Builder",
//		func() *strings.Builder { return new(strings.Builder) }))
//
//	rt := lang.New(lang.WithBridge(reg))
//	rt.Eval(ctx, `var sb = new strings.Builder(); sb.writeString(strings.toUpper("hi")); sb.string()`)
//
// Members are found by their exact name first, then with the first letter
// upper-cased, so scripts can keep lower camel case.
//
// Script arguments convert to the Go parameter type: numbers to any numeric
// kind, arrays to slices, objects to maps, script functions to Go function
// types, and null or undefined to the zero value. Parameters of type any
// receive [lang.Export] of the argument. A leading [context.Context]
// parameter receives the evaluation context. Results convert back: integers
// to int, floats to float64, slices to arrays, string-keyed maps to objects.
// A non-nil trailing error result fails the call; the runtime reports it
// under [lang.ErrInterop].
//
// [Std] returns a registry preloaded with the strings, math, path, env,
// mung and expr namespaces.
package host
