package lang

import (
	"fmt"
	"strings"
)

// FormatResult renders v in script literal syntax: strings are quoted,
// objects and arrays are written as literals of their own enumerable
// properties, and functions as their signatures. An object reached again
// while it is being rendered is written as [Circular].
func FormatResult(v Value) string {
	var b strings.Builder

	formatResult(&b, v, make(map[Object]bool))

	return b.String()
}

func formatResult(b *strings.Builder, v Value, seen map[Object]bool) {
	switch o := v.(type) {
	case nil, undefinedType, bool, int, string:
		b.WriteString(literal(o))

	case float64:
		b.WriteString(formatNumber(o))

	case *Function:
		b.WriteString(o.Signature())

	case *globalObject:
		b.WriteString("[object global]")

	case *ArrayObject:
		if seen[o] {
			b.WriteString("[Circular]")

			return
		}

		seen[o] = true
		defer delete(seen, o)

		b.WriteByte('[')

		for i, e := range o.elems {
			if i > 0 {
				b.WriteString(", ")
			}

			formatResult(b, e, seen)
		}

		b.WriteByte(']')

	case Object:
		if seen[o] {
			b.WriteString("[Circular]")

			return
		}

		seen[o] = true
		defer delete(seen, o)

		names := o.Names()
		if len(names) == 0 {
			b.WriteString("{}")

			return
		}

		b.WriteString("{ ")

		for i, name := range names {
			if i > 0 {
				b.WriteString(", ")
			}

			if isIdentifier(name) && name != "" {
				b.WriteString(name)
			} else {
				b.WriteString(quote(name))
			}

			b.WriteString(": ")

			e, _ := o.Own(name)
			formatResult(b, e, seen)
		}

		b.WriteString(" }")

	case Callable:
		b.WriteString("function () { [native code] }")

	default:
		fmt.Fprint(b, o)
	}
}
