package repl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/log"
)

// Host exposes the host values visible to a session for completion and
// signature hints. [host.Registry] implements it.
type Host interface {
	// Names returns the member names of the host namespace at path, or the
	// top-level names when path is empty.
	Names(path string) []string
	// Resolve returns the host value at the dotted name.
	Resolve(name string) (lang.Value, bool)
}

// session is the persistent state behind the REPL: one runtime, the print
// output it produced since the last evaluation, and the script of every
// input that evaluated successfully.
type session struct {
	rt     *lang.Runtime
	opts   []lang.Option
	host   Host
	out    *bytes.Buffer
	script []string
	logger log.Logger
}

func newSession(logger log.Logger, hostValues Host, opts ...lang.Option) *session {
	s := &session{
		host:   hostValues,
		out:    new(bytes.Buffer),
		logger: logger,
	}

	s.opts = append(slices.Clone(opts),
		lang.WithLogger(logger),
		lang.WithOutput(s.out),
	)
	s.rt = lang.New(s.opts...)

	return s
}

// load runs the program read from r and records it in the session script.
func (s *session) load(ctx context.Context, r io.Reader) error {
	ast, err := lang.ParseReader(ctx, r, lang.WithLogger(s.logger))
	if err != nil {
		return err
	}

	if _, err := s.rt.Run(ctx, ast); err != nil {
		return err
	}

	s.script = append(s.script, ast.String())

	return nil
}

// eval runs input and returns its result along with any printed output.
func (s *session) eval(ctx context.Context, input string) (lang.Value, string, error) {
	defer s.out.Reset()

	input = terminate(input)

	v, err := s.rt.Eval(ctx, input)

	printed := strings.TrimSuffix(s.out.String(), "\n")
	if err != nil {
		return nil, printed, err
	}

	s.script = append(s.script, input)

	return v, printed, nil
}

// source returns the session script formatted as canonical source.
func (s *session) source(ctx context.Context, indent int) (string, error) {
	ast, err := lang.ParseString(ctx, strings.Join(s.script, "\n"), lang.WithLogger(s.logger))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := ast.Format(ctx, &b, indent); err != nil {
		return "", err
	}

	return b.String(), nil
}

// replace discards all session state and runs ast in a fresh runtime.
func (s *session) replace(ctx context.Context, ast *lang.AST) error {
	rt := lang.New(s.opts...)

	_, err := rt.Run(ctx, ast)

	s.out.Reset()

	if err != nil {
		return err
	}

	s.rt = rt
	s.script = []string{ast.String()}

	s.logger.TraceContext(ctx, "repl session replaced",
		slog.Int("names", len(rt.Names())),
	)

	return nil
}

// globals returns the user-defined global names, sorted.
func (s *session) globals() []string {
	return slices.DeleteFunc(s.rt.Names(), lang.Builtin)
}

// lookup resolves a dotted path in the runtime, then among host values.
func (s *session) lookup(path string) (lang.Value, bool) {
	if v, ok := s.rt.Lookup(path); ok {
		return v, true
	}

	if s.host != nil {
		return s.host.Resolve(path)
	}

	return nil, false
}

// members returns the completion candidates below the dotted path parent,
// or the top-level names when parent is empty.
func (s *session) members(parent string) []string {
	var names []string

	if parent == "" {
		names = append(names, s.rt.Names()...)
		names = append(names, keywords...)

		if s.host != nil {
			names = append(names, s.host.Names("")...)
		}
	} else if v, ok := s.rt.Lookup(parent); ok {
		names = properties(v)
	} else if s.host != nil {
		names = s.host.Names(parent)
		if v, ok := s.host.Resolve(parent); ok && len(names) == 0 {
			names = hostMembers(v)
		}
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// callable reports whether the value at path can be invoked.
func (s *session) callable(path string) bool {
	v, ok := s.lookup(path)
	if !ok {
		return false
	}

	if _, ok := v.(lang.Callable); ok {
		return true
	}

	return reflect.ValueOf(v).Kind() == reflect.Func
}

// properties returns the own and inherited property names of a script
// object. Arrays and strings contribute "length".
func properties(v lang.Value) []string {
	if _, ok := v.(string); ok {
		return []string{"length"}
	}

	o, ok := v.(lang.Object)
	if !ok {
		return hostMembers(v)
	}

	var names []string

	if _, ok := o.(*lang.ArrayObject); ok {
		names = append(names, "length")
	}

	for range maxChain {
		names = append(names, o.Names()...)

		fn := o.Function()
		if fn == nil {
			break
		}

		proto := fn.Prototype()
		if proto == nil || proto == o {
			break
		}

		o = proto
	}

	return names
}

// maxChain bounds prototype chain walks.
const maxChain = 64

// hostMembers returns the exported methods and fields of a host value.
func hostMembers(v lang.Value) []string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}

	var names []string

	for i := range rv.NumMethod() {
		names = append(names, rv.Type().Method(i).Name)
	}

	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		t := rv.Type()
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() {
				names = append(names, f.Name)
			}
		}
	}

	return names
}

// terminate appends the semicolon that ends the last statement of input.
// After a block it parses as an empty statement.
func terminate(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasSuffix(input, ";") {
		return input
	}

	return input + ";"
}
