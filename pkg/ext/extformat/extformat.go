// Package extformat provides CSV conversion between strings and lists.
package extformat

import (
	"context"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/goscheme/pkg/ext/extutil"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/types"
)

// All returns all extended format procedure definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		ParseCSV(),
		ParseCSVRecords(),
		ToCSV(),
	}
}

// AllEntries returns all format procedure definitions as
// [functions.FunctionEntry], suitable for spreading into
// [goscheme.WithFunctions].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// separator reads the optional delimiter argument i: a character or a
// one-character string.
func separator(name string, args []interface{}, i int) (rune, error) {
	if !extutil.Optional(args, i) {
		return ',', nil
	}
	if c, ok := args[i].(types.Char); ok {
		return rune(c), nil
	}
	s, err := extutil.String(name, args, i)
	if err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, types.NewError(types.ErrBadArgument, name+": separator must be a single character", args[i])
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func read(name string, args []interface{}) ([][]string, error) {
	src, err := extutil.String(name, args, 0)
	if err != nil {
		return nil, err
	}
	sep, err := separator(name, args, 1)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(src))
	r.Comma = sep
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, types.NewError(types.ErrBadArgument, name+": "+err.Error()).WithCause(err)
	}
	return records, nil
}

func row(fields []string) types.Value {
	vals := make([]types.Value, len(fields))
	for i, f := range fields {
		vals[i] = f
	}
	return types.List(vals...)
}

// ParseCSV returns the definition for (csv->list str [sep]), which parses
// CSV text into a list of rows, each a list of strings.
func ParseCSV() functions.CustomFunctionDef {
	const name = "csv->list"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			records, err := read(name, args)
			if err != nil {
				return nil, err
			}
			rows := make([]types.Value, len(records))
			for i, rec := range records {
				rows[i] = row(rec)
			}
			return types.List(rows...), nil
		},
	}
}

// ParseCSVRecords returns the definition for (csv->alist str [sep]). The
// first row names the columns; every following row becomes an association
// list from column symbol to field. Missing fields are empty strings.
func ParseCSVRecords() functions.CustomFunctionDef {
	const name = "csv->alist"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			records, err := read(name, args)
			if err != nil {
				return nil, err
			}
			if len(records) < 2 {
				return types.Nil, nil
			}
			headers := make([]*types.Symbol, len(records[0]))
			for i, h := range records[0] {
				headers[i] = types.Intern(h)
			}
			out := make([]types.Value, 0, len(records)-1)
			for _, rec := range records[1:] {
				fields := make([]types.Value, len(headers))
				for i, h := range headers {
					f := ""
					if i < len(rec) {
						f = rec[i]
					}
					fields[i] = types.Cons(h, f)
				}
				out = append(out, types.List(fields...))
			}
			return types.List(out...), nil
		},
	}
}

// ToCSV returns the definition for (list->csv rows [sep]). Each row is a list
// whose elements are written in display form.
func ToCSV() functions.CustomFunctionDef {
	const name = "list->csv"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			rows, err := types.ListToSlice(args[0])
			if err != nil {
				return nil, types.NewError(types.ErrBadType, name+": expected a list of rows", args[0])
			}
			sep, err := separator(name, args, 1)
			if err != nil {
				return nil, err
			}
			var sb strings.Builder
			w := csv.NewWriter(&sb)
			w.Comma = sep
			for _, r := range rows {
				cells, err := types.ListToSlice(r)
				if err != nil {
					return nil, types.NewError(types.ErrBadType, name+": row is not a list", r)
				}
				rec := make([]string, len(cells))
				for i, c := range cells {
					rec[i] = types.String(c, false)
				}
				if err := w.Write(rec); err != nil {
					return nil, types.NewError(types.ErrBadArgument, name+": "+err.Error()).WithCause(err)
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return nil, types.NewError(types.ErrBadArgument, name+": "+err.Error()).WithCause(err)
			}
			return sb.String(), nil
		},
	}
}
