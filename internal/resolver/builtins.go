package resolver

import "github.com/standardbeagle/codegraph/internal/types"

// builtins lists per-language names that are language built-ins or standard
// library surface rather than project symbols: canonical I/O, collections,
// and numeric primitives (spec §4.D strategy 1). Resolving these would
// either fail (no such node) or, worse, mis-match an unrelated project
// symbol sharing the name.
var builtins = map[string]map[string]bool{
	"go": {
		"Sprintf": true, "Printf": true, "Println": true, "Print": true,
		"Errorf": true, "New": true, "Append": true, "len": true, "cap": true,
		"make": true, "copy": true, "append": true, "panic": true, "recover": true,
		"String": true, "Error": true, "Close": true, "Unwrap": true,
	},
	"javascript": {
		"log": true, "error": true, "warn": true, "map": true, "filter": true,
		"reduce": true, "forEach": true, "push": true, "slice": true, "join": true,
		"toString": true, "parseInt": true, "parseFloat": true, "JSON": true,
		"stringify": true, "parse": true, "require": true,
	},
	"typescript": {
		"log": true, "error": true, "warn": true, "map": true, "filter": true,
		"reduce": true, "forEach": true, "push": true, "slice": true, "join": true,
		"toString": true, "parseInt": true, "parseFloat": true, "JSON": true,
		"stringify": true, "parse": true, "require": true,
	},
	"python": {
		"print": true, "len": true, "str": true, "int": true, "float": true,
		"list": true, "dict": true, "set": true, "range": true, "enumerate": true,
		"isinstance": true, "super": true, "open": true, "format": true,
	},
	"java": {
		"println": true, "print": true, "toString": true, "equals": true,
		"hashCode": true, "valueOf": true, "length": true,
	},
	"php": {
		"echo": true, "print": true, "array_map": true, "array_filter": true,
		"strlen": true, "count": true, "implode": true, "explode": true,
	},
	"rust": {
		"println": true, "print": true, "format": true, "vec": true, "len": true,
		"unwrap": true, "expect": true, "clone": true, "to_string": true,
	},
	"csharp": {
		"WriteLine": true, "Write": true, "ToString": true, "Equals": true,
		"GetHashCode": true, "Parse": true,
	},
	"cpp": {
		"cout": true, "endl": true, "printf": true, "malloc": true, "free": true,
		"std": true,
	},
}

// isBuiltin reports whether a reference name is a known built-in for its
// language: a skip, not a resolution failure (spec §4.D strategy 1).
func isBuiltin(ref types.UnresolvedReference) bool {
	set, ok := builtins[ref.Language]
	if !ok {
		return false
	}
	return set[ref.ReferenceName]
}
