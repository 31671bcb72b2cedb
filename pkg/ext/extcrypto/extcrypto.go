// Package extcrypto provides hashing and identifier procedures.
// All procedures use only the Go standard library.
//
// Security note: MD5 and SHA-1 are provided for compatibility/fingerprinting only
// and should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/sandrolain/goscheme/pkg/ext/extutil"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/types"
)

// defaultAlgorithm is used when no algorithm argument is given.
const defaultAlgorithm = "sha256"

// All returns all cryptographic procedure definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		UUID(),
		Hash(),
		HMAC(),
	}
}

// AllEntries returns all crypto procedure definitions as [functions.FunctionEntry],
// suitable for spreading into [goscheme.WithFunctions].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// UUID returns the definition for (uuid), a random version 4 UUID string.
func UUID() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "uuid",
		MinArgs: 0,
		MaxArgs: 0,
		Fn: func(_ context.Context, _ ...interface{}) (interface{}, error) {
			var b [16]byte
			if _, err := rand.Read(b[:]); err != nil {
				return nil, types.NewError(types.ErrHost, "uuid: cannot read random bytes").WithCause(err)
			}
			// Set version 4
			b[6] = (b[6] & 0x0f) | 0x40
			// Set variant bits
			b[8] = (b[8] & 0x3f) | 0x80
			return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
				b[0:4], b[4:6], b[6:8], b[8:10], b[10:16]), nil
		},
	}
}

// algorithm returns the algorithm named by the optional argument i.
func algorithm(name string, args []interface{}, i int) (string, error) {
	if !extutil.Optional(args, i) {
		return defaultAlgorithm, nil
	}
	if sym, ok := args[i].(*types.Symbol); ok {
		return strings.ToLower(sym.Name), nil
	}
	s, err := extutil.String(name, args, i)
	return strings.ToLower(s), err
}

// Hash returns the definition for (string-hash s [algorithm]).
// Supported algorithms: md5, sha1, sha256 (default), sha384, sha512, given
// as a symbol or a string. Returns a lowercase hex-encoded digest.
func Hash() functions.CustomFunctionDef {
	const name = "string-hash"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			str, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			alg, err := algorithm(name, args, 1)
			if err != nil {
				return nil, err
			}
			newHash, err := hasher(name, alg)
			if err != nil {
				return nil, err
			}
			h := newHash()
			h.Write([]byte(str))
			return hex.EncodeToString(h.Sum(nil)), nil
		},
	}
}

// HMAC returns the definition for (string-hmac s key [algorithm]).
// Returns a lowercase hex-encoded HMAC.
func HMAC() functions.CustomFunctionDef {
	const name = "string-hmac"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			str, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			key, err := extutil.String(name, args, 1)
			if err != nil {
				return nil, err
			}
			alg, err := algorithm(name, args, 2)
			if err != nil {
				return nil, err
			}
			newHash, err := hasher(name, alg)
			if err != nil {
				return nil, err
			}
			mac := hmac.New(newHash, []byte(key))
			mac.Write([]byte(str))
			return hex.EncodeToString(mac.Sum(nil)), nil
		},
	}
}

// ── helpers ────────────────────────────────────────────────────────────────

func hasher(name, algorithm string) (func() hash.Hash, error) {
	switch algorithm {
	case "md5":
		return md5.New, nil //nolint:gosec
	case "sha1":
		return sha1.New, nil //nolint:gosec
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	}
	return nil, types.NewError(types.ErrBadArgument,
		name+": unsupported algorithm; use md5, sha1, sha256, sha384 or sha512", algorithm)
}
