package repl

import (
	"context"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/ajs/lang"
)

// Styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // dotted callee path (e.g., "strings.Join")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. It returns the function name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Find the innermost unclosed '(' before the cursor.
	depth := 0
	open := -1

	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		if r == ')' {
			depth++
		} else if r == '(' {
			if depth == 0 {
				open = i

				break
			}

			depth--
		}
	}

	if open == -1 {
		return functionCall{}
	}

	// Collect the identifier chain before the '('.
	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	// Count commas at depth 0 in the argument list.
	argIndex := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// signature returns the signature of the callable at the dotted path name
// and its parameter names, or "" when name does not resolve to a function.
func (s *session) signature(name string) (sig string, params []string) {
	v, ok := s.lookup(name)
	if !ok {
		return "", nil
	}

	if f, ok := v.(*lang.Function); ok {
		return formatSignature(name, f.Params), f.Params
	}

	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Func {
		return "", nil
	}

	params = hostParams(t)

	return formatSignature(name, params), params
}

var contextType = reflect.TypeFor[context.Context]()

// hostParams describes the parameters of a host function by type. A
// leading context parameter is supplied by the runtime and omitted.
func hostParams(t reflect.Type) []string {
	var params []string

	for i := range t.NumIn() {
		in := t.In(i)

		if i == 0 && in == contextType {
			continue
		}

		if t.IsVariadic() && i == t.NumIn()-1 {
			params = append(params, "..."+formatTypeName(in.Elem()))
		} else {
			params = append(params, formatTypeName(in))
		}
	}

	return params
}

// formatTypeName converts a reflect.Type to a readable parameter name.
// Examples: "string", "int", "bool", "func".
func formatTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "array"
	case reflect.Map:
		return "object"
	case reflect.Pointer:
		return formatTypeName(t.Elem())
	default:
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

// formatSignature formats a function signature with parameter names.
func formatSignature(name string, params []string) string {
	return name + "(" + strings.Join(params, ", ") + ")"
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		// A variadic parameter stays highlighted for every later argument.
		isVariadic := strings.HasPrefix(param, "...")

		if (isVariadic && currentArgIdx >= i) ||
			(!isVariadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
