package types

// MaxListLength bounds list walks. Longer (or circular) lists are reported as
// errors instead of hanging the evaluator.
const MaxListLength = 10000000

// Cons allocates a new pair.
func Cons(car, cdr Value) *Pair {
	return &Pair{Car: car, Cdr: cdr}
}

// List builds a proper list from vals.
func List(vals ...Value) Value {
	return ListWithTail(vals, Nil)
}

// ListWithTail builds a list from vals whose final cdr is tail.
func ListWithTail(vals []Value, tail Value) Value {
	out := tail
	for i := len(vals) - 1; i >= 0; i-- {
		out = &Pair{Car: vals[i], Cdr: out}
	}
	return out
}

// IsList reports whether v is a proper (finite, Nil-terminated) list.
func IsList(v Value) bool {
	_, err := Length(v)
	return err == nil
}

// Length returns the number of elements of the proper list v.
func Length(v Value) (int, error) {
	n := 0
	slow := v
	for {
		if v == Nil {
			return n, nil
		}
		p, ok := v.(*Pair)
		if !ok {
			return 0, NewError(ErrBadType, "improper list", v)
		}
		v = p.Cdr
		n++
		if n&1 == 0 {
			slow = slow.(*Pair).Cdr
			if slow == v && v != Nil {
				return 0, NewError(ErrBadArgument, "circular list")
			}
		}
		if n > MaxListLength {
			return 0, NewError(ErrBadArgument, "list too long")
		}
	}
}

// ListToSlice copies the elements of the proper list v.
func ListToSlice(v Value) ([]Value, error) {
	n, err := Length(v)
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, n)
	for v != Nil {
		p := v.(*Pair)
		out = append(out, p.Car)
		v = p.Cdr
	}
	return out, nil
}

// Truthy reports whether v counts as true; only #f is false.
func Truthy(v Value) bool {
	b, ok := v.(bool)
	return !ok || b
}
