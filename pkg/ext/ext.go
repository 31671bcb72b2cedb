// Package ext provides optional extension procedures for goscheme that go
// beyond the standard procedure set.
//
// The extension procedures live in sub-packages grouped by category:
//   - extstring  – string-upcase, string-index, string-split, string-join, …
//   - extlist    – take, drop, flatten, chunk, range, group-by, …
//   - extnumeric – clamp, mean, median, variance, percentile, …
//   - extfunc    – pipe, compose, memoize
//   - extcrypto  – uuid, string-hash, string-hmac
//   - extformat  – csv->list, csv->alist, list->csv
//   - extwasm    – wasm-load, wasm-call, wasm-exports, … (WebAssembly via wazero)
//
// # Integration – all extensions at once
//
//	import "github.com/sandrolain/goscheme/pkg/ext"
//
//	result, err := goscheme.Eval(src, ext.WithAll())
//
// # Integration – by category
//
//	result, err := goscheme.Eval(src,
//	    ext.WithString(),
//	    ext.WithList(),
//	    ext.WithWasm(),
//	)
//
// # Integration – single procedure from a sub-package
//
//	import extstring "github.com/sandrolain/goscheme/pkg/ext/extstring"
//
//	result, err := goscheme.Eval(src,
//	    goscheme.WithFunctions(extstring.Split()),
//	)
package ext

import (
	"github.com/sandrolain/goscheme/pkg/evaluator"
	"github.com/sandrolain/goscheme/pkg/ext/extcrypto"
	"github.com/sandrolain/goscheme/pkg/ext/extformat"
	"github.com/sandrolain/goscheme/pkg/ext/extfunc"
	"github.com/sandrolain/goscheme/pkg/ext/extlist"
	"github.com/sandrolain/goscheme/pkg/ext/extnumeric"
	"github.com/sandrolain/goscheme/pkg/ext/extstring"
	"github.com/sandrolain/goscheme/pkg/ext/extwasm"
	"github.com/sandrolain/goscheme/pkg/functions"
)

// AllSimple returns all simple extension procedure definitions.
func AllSimple() []functions.CustomFunctionDef {
	var all []functions.CustomFunctionDef
	all = append(all, extstring.All()...)
	all = append(all, extlist.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extcrypto.All()...)
	all = append(all, extformat.All()...)
	return all
}

// AllAdvanced returns all extension procedure definitions that need the
// host.
func AllAdvanced() []functions.AdvancedCustomFunctionDef {
	var all []functions.AdvancedCustomFunctionDef
	all = append(all, extlist.AllAdvanced()...)
	all = append(all, extfunc.AllAdvanced()...)
	all = append(all, extwasm.All()...)
	return all
}

// AllEntries returns all extension procedure definitions (simple +
// advanced) as [functions.FunctionEntry], suitable for spreading into
// [goscheme.WithFunctions]:
//
//	goscheme.WithFunctions(ext.AllEntries()...)
func AllEntries() []functions.FunctionEntry {
	simple := AllSimple()
	adv := AllAdvanced()
	out := make([]functions.FunctionEntry, 0, len(simple)+len(adv))
	for _, f := range simple {
		out = append(out, f)
	}
	for _, f := range adv {
		out = append(out, f)
	}
	return out
}

// WithAll returns an EvalOption that registers all extension procedures.
func WithAll() evaluator.EvalOption {
	return evaluator.WithFunctions(AllEntries()...)
}

// WithString returns an EvalOption for the extended string procedures.
func WithString() evaluator.EvalOption {
	return evaluator.WithFunctions(extstring.AllEntries()...)
}

// WithWasm returns an EvalOption for the WebAssembly procedures.
func WithWasm() evaluator.EvalOption {
	return evaluator.WithFunctions(extwasm.AllEntries()...)
}

// WithList returns an EvalOption for the list procedures, higher-order ones
// included.
func WithList() evaluator.EvalOption {
	return evaluator.WithFunctions(extlist.AllEntries()...)
}

// WithNumeric returns an EvalOption for the numeric and statistics
// procedures.
func WithNumeric() evaluator.EvalOption {
	return evaluator.WithFunctions(extnumeric.AllEntries()...)
}

// WithFunctional returns an EvalOption for pipe, compose and memoize.
func WithFunctional() evaluator.EvalOption {
	return evaluator.WithFunctions(extfunc.AllEntries()...)
}

// WithCrypto returns an EvalOption for the hashing procedures.
func WithCrypto() evaluator.EvalOption {
	return evaluator.WithFunctions(extcrypto.AllEntries()...)
}

// WithFormat returns an EvalOption for the CSV procedures.
func WithFormat() evaluator.EvalOption {
	return evaluator.WithFunctions(extformat.AllEntries()...)
}
