// Package extstring provides string procedures beyond the standard set.
// Register them via goscheme.WithFunctions or via the top-level
// ext.WithString() helper.
package extstring

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/goscheme/pkg/ext/extutil"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/types"
)

// All returns all extended string function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Upcase(),
		Downcase(),
		Index(),
		LastIndex(),
		Contains(),
		Split(),
		Join(),
		Trim(),
		Prefix(),
		Suffix(),
		Titlecase(),
		CamelCase(),
		SnakeCase(),
		KebabCase(),
		Repeat(),
		Words(),
		Template(),
	}
}

// AllEntries returns all string function definitions as [functions.FunctionEntry],
// suitable for spreading into [goscheme.WithFunctions]:
//
//	goscheme.WithFunctions(extstring.AllEntries()...)
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

func mapString(name string, fn func(string) string) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			s, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			return fn(s), nil
		},
	}
}

// Upcase returns the definition for (string-upcase s).
func Upcase() functions.CustomFunctionDef {
	return mapString("string-upcase", strings.ToUpper)
}

// Downcase returns the definition for (string-downcase s).
func Downcase() functions.CustomFunctionDef {
	return mapString("string-downcase", strings.ToLower)
}

// Trim returns the definition for (string-trim s), which removes leading
// and trailing whitespace.
func Trim() functions.CustomFunctionDef {
	return mapString("string-trim", strings.TrimSpace)
}

// needle returns argument i as a search string; a character is accepted too.
func needle(name string, args []interface{}, i int) (string, error) {
	if c, ok := args[i].(types.Char); ok {
		return string(rune(c)), nil
	}
	return extutil.String(name, args, i)
}

// runeIndex converts a byte offset in s into a character index.
func runeIndex(s string, b int) int {
	return utf8.RuneCountInString(s[:b])
}

// byteOffset converts a character index into a byte offset of s, clamped to
// the string's bounds.
func byteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	for b := range s {
		if n == 0 {
			return b
		}
		n--
	}
	return len(s)
}

// Index returns the definition for (string-index s search [start]). search
// is a character or a string. The result is the character index of the
// first match at or after start, or #f.
func Index() functions.CustomFunctionDef {
	const name = "string-index"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			s, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			search, err := needle(name, args, 1)
			if err != nil {
				return nil, err
			}
			start := 0
			if extutil.Optional(args, 2) {
				if start, err = extutil.Int(name, args, 2); err != nil {
					return nil, err
				}
			}
			from := byteOffset(s, start)
			idx := strings.Index(s[from:], search)
			if idx == -1 {
				return false, nil
			}
			return runeIndex(s, from+idx), nil
		},
	}
}

// LastIndex returns the definition for (string-last-index s search).
func LastIndex() functions.CustomFunctionDef {
	const name = "string-last-index"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			s, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			search, err := needle(name, args, 1)
			if err != nil {
				return nil, err
			}
			idx := strings.LastIndex(s, search)
			if idx == -1 {
				return false, nil
			}
			return runeIndex(s, idx), nil
		},
	}
}

// Contains returns the definition for (string-contains s sub), the index of
// the first occurrence of sub in s or #f.
func Contains() functions.CustomFunctionDef {
	const name = "string-contains"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			s, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			sub, err := extutil.String(name, args, 1)
			if err != nil {
				return nil, err
			}
			idx := strings.Index(s, sub)
			if idx == -1 {
				return false, nil
			}
			return runeIndex(s, idx), nil
		},
	}
}

// Split returns the definition for (string-split s [separator]). Without a
// separator the string is split on runs of whitespace.
func Split() functions.CustomFunctionDef {
	const name = "string-split"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			s, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			if !extutil.Optional(args, 1) {
				return strings.Fields(s), nil
			}
			sep, err := needle(name, args, 1)
			if err != nil {
				return nil, err
			}
			return strings.Split(s, sep), nil
		},
	}
}

// Join returns the definition for (string-join list [delimiter]). The
// delimiter defaults to a single space.
func Join() functions.CustomFunctionDef {
	const name = "string-join"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			parts, err := extutil.Strings(name, args, 0)
			if err != nil {
				return nil, err
			}
			delim := " "
			if extutil.Optional(args, 1) {
				if delim, err = needle(name, args, 1); err != nil {
					return nil, err
				}
			}
			return strings.Join(parts, delim), nil
		},
	}
}

func affix(name string, test func(s, affix string) bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			a, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			s, err := extutil.String(name, args, 1)
			if err != nil {
				return nil, err
			}
			return test(s, a), nil
		},
	}
}

// Prefix returns the definition for (string-prefix? prefix s).
func Prefix() functions.CustomFunctionDef {
	return affix("string-prefix?", strings.HasPrefix)
}

// Suffix returns the definition for (string-suffix? suffix s).
func Suffix() functions.CustomFunctionDef {
	return affix("string-suffix?", strings.HasSuffix)
}

// Titlecase returns the definition for (string-titlecase s), which
// uppercases the first letter of every word and lowercases the rest.
func Titlecase() functions.CustomFunctionDef {
	return mapString("string-titlecase", func(s string) string {
		runes := []rune(s)
		start := true
		for i, r := range runes {
			if unicode.IsLetter(r) {
				if start {
					runes[i] = unicode.ToUpper(r)
				} else {
					runes[i] = unicode.ToLower(r)
				}
				start = false
			} else {
				start = true
			}
		}
		return string(runes)
	})
}

// splitWordsRe finds word boundaries: separators and lower-to-upper case
// transitions.
var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z])([A-Z])`)

func splitIntoWords(str string) []string {
	expanded := splitWordsRe.ReplaceAllStringFunc(str, func(s string) string {
		if len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' {
			return string(s[0]) + " " + string(s[1])
		}
		return " "
	})
	return strings.Fields(expanded)
}

// CamelCase returns the definition for (string->camel-case s).
func CamelCase() functions.CustomFunctionDef {
	return mapString("string->camel-case", func(s string) string {
		words := splitIntoWords(s)
		if len(words) == 0 {
			return ""
		}
		var b strings.Builder
		b.WriteString(strings.ToLower(words[0]))
		for _, w := range words[1:] {
			runes := []rune(strings.ToLower(w))
			runes[0] = unicode.ToUpper(runes[0])
			b.WriteString(string(runes))
		}
		return b.String()
	})
}

func joinedLower(sep string) func(string) string {
	return func(s string) string {
		words := splitIntoWords(s)
		for i, w := range words {
			words[i] = strings.ToLower(w)
		}
		return strings.Join(words, sep)
	}
}

// SnakeCase returns the definition for (string->snake-case s).
func SnakeCase() functions.CustomFunctionDef {
	return mapString("string->snake-case", joinedLower("_"))
}

// KebabCase returns the definition for (string->kebab-case s).
func KebabCase() functions.CustomFunctionDef {
	return mapString("string->kebab-case", joinedLower("-"))
}

// Repeat returns the definition for (string-repeat s n).
func Repeat() functions.CustomFunctionDef {
	const name = "string-repeat"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			s, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			n, err := extutil.Int(name, args, 1)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, types.NewError(types.ErrBadArgument, name+": negative count", args[1])
			}
			return strings.Repeat(s, n), nil
		},
	}
}

// Words returns the definition for (string-words s), the list of
// whitespace-separated words of s.
func Words() functions.CustomFunctionDef {
	const name = "string-words"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			s, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			return strings.Fields(s), nil
		},
	}
}

var placeholderRe = regexp.MustCompile(`\{\{([^{}\s]+)\}\}`)

// Template returns the definition for (string-template s bindings).
// {{key}} placeholders are replaced by the displayed value bound to key in
// the association list bindings. Keys may be symbols or strings; unknown
// placeholders are left as they are.
func Template() functions.CustomFunctionDef {
	const name = "string-template"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			tmpl, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			entries, err := types.ListToSlice(args[1])
			if err != nil {
				return nil, types.NewError(types.ErrBadType, name+": expected an association list", args[1])
			}
			bindings := make(map[string]types.Value, len(entries))
			for _, entry := range entries {
				p, ok := entry.(*types.Pair)
				if !ok {
					return nil, types.NewError(types.ErrBadType, name+": expected an association list", args[1])
				}
				switch k := p.Car.(type) {
				case *types.Symbol:
					bindings[k.Name] = p.Cdr
				case string:
					bindings[k] = p.Cdr
				}
			}
			return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
				if v, ok := bindings[match[2:len(match)-2]]; ok {
					return types.String(v, false)
				}
				return match
			}), nil
		},
	}
}
