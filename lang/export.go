package lang

// Export converts a runtime value to plain Go data: objects become
// map[string]any of their own enumerable properties, arrays become []any,
// functions become their signature and undefined becomes nil. Host values
// are returned unchanged. An object reached again while it is being
// exported is replaced by the string "[Circular]".
func Export(v Value) any {
	return export(v, make(map[Object]bool))
}

func export(v Value, seen map[Object]bool) any {
	switch o := v.(type) {
	case undefinedType:
		return nil

	case *Function:
		return o.Signature()

	case *globalObject:
		return "[object global]"

	case *ArrayObject:
		if seen[o] {
			return "[Circular]"
		}

		seen[o] = true
		defer delete(seen, o)

		out := make([]any, o.Len())
		for i, e := range o.Elements() {
			out[i] = export(e, seen)
		}

		return out

	case Object:
		if seen[o] {
			return "[Circular]"
		}

		seen[o] = true
		defer delete(seen, o)

		out := make(map[string]any)
		for _, name := range o.Names() {
			val, _ := o.Own(name)
			out[name] = export(val, seen)
		}

		return out

	case NativeFunc:
		return "function()"
	}

	return v
}
