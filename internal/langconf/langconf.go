// Package langconf holds the per-language tables the extractor drives: which
// file extensions belong to a language, the tree-sitter grammar and query
// used to find declarations, and how a capture name maps onto a node Kind.
package langconf

import (
	"unsafe"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/codegraph/internal/types"
)

// Config describes how one language's declarations map onto the graph.
type Config struct {
	Name       string
	Extensions []string
	// Query is the tree-sitter query string used to find declaration nodes.
	Query string
	// Captures maps a top-level query capture (e.g. "function") to a Kind.
	Captures map[string]types.Kind
	// NameCaptures lists the ".name" sub-captures this language's Query
	// defines. The extractor does not read it: it names a declaration from
	// the capture's own "<capture>.name" sub-capture, else from any ".name"
	// sub-capture in the same match.
	NameCaptures []string
	// CallCaptures names captures that represent call expressions rather
	// than declarations; the extractor emits an unresolved reference for
	// these instead of a node.
	CallCaptures map[string]types.EdgeKind
	// languageFn lazily builds the tree-sitter Language (grammar init has a
	// real cost; only languages present in a project should pay it).
	languageFn func() *tree_sitter.Language
}

// Language returns the tree-sitter language for this config.
func (c Config) Language() *tree_sitter.Language {
	return c.languageFn()
}

func lang(ptr func() unsafe.Pointer) func() *tree_sitter.Language {
	return func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(ptr())
	}
}

// All is every supported language config, keyed by canonical name.
var All = map[string]Config{
	"go": {
		Name:         "go",
		Extensions:   []string{".go"},
		languageFn:   lang(tree_sitter_go.Language),
		NameCaptures: []string{"function.name", "method.name", "type.name"},
		Captures: map[string]types.Kind{
			"function": types.KindFunction,
			"method":   types.KindMethod,
			"type":     types.KindTypeAlias,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(function_declaration name: (identifier) @function.name) @function
			(method_declaration
				receiver: (parameter_list)
				name: (field_identifier) @method.name) @method
			(type_declaration
				(type_spec name: (type_identifier) @type.name)) @type
			(import_spec path: (interpreted_string_literal) @import.path) @import
			(call_expression function: (_) @call.target) @call
		`,
	},
	"javascript": {
		Name:         "javascript",
		Extensions:   []string{".js", ".jsx", ".mjs", ".cjs"},
		languageFn:   lang(tree_sitter_javascript.Language),
		NameCaptures: []string{"function.name", "method.name", "class.name"},
		Captures: map[string]types.Kind{
			"function": types.KindFunction,
			"method":   types.KindMethod,
			"class":    types.KindClass,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(variable_declarator
				name: (identifier) @function.name
				value: [(arrow_function) (function_expression) (generator_function)]) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (identifier) @class.name) @class
			(import_statement source: (string) @import.source) @import
			(call_expression function: (_) @call.target) @call
		`,
	},
	"typescript": {
		Name:         "typescript",
		Extensions:   []string{".ts", ".tsx"},
		languageFn:   lang(tree_sitter_typescript.LanguageTypescript),
		NameCaptures: []string{"function.name", "method.name", "class.name", "interface.name", "type.name", "enum.name"},
		Captures: map[string]types.Kind{
			"function":  types.KindFunction,
			"method":    types.KindMethod,
			"class":     types.KindClass,
			"interface": types.KindInterface,
			"type":      types.KindTypeAlias,
			"enum":      types.KindEnum,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (type_identifier) @class.name) @class
			(interface_declaration name: (type_identifier) @interface.name) @interface
			(type_alias_declaration name: (type_identifier) @type.name) @type
			(enum_declaration name: (identifier) @enum.name) @enum
			(import_statement source: (string) @import.source) @import
			(call_expression function: (_) @call.target) @call
		`,
	},
	"python": {
		Name:         "python",
		Extensions:   []string{".py", ".pyi"},
		languageFn:   lang(tree_sitter_python.Language),
		NameCaptures: []string{"function.name", "method.name", "class.name"},
		Captures: map[string]types.Kind{
			"function": types.KindFunction,
			"method":   types.KindMethod,
			"class":    types.KindClass,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(class_definition
				body: (block
					(function_definition name: (identifier) @method.name))) @method
			(function_definition name: (identifier) @function.name) @function
			(class_definition name: (identifier) @class.name) @class
			(import_statement) @import
			(import_from_statement) @import
			(call function: (_) @call.target) @call
		`,
	},
	"java": {
		Name:         "java",
		Extensions:   []string{".java"},
		languageFn:   lang(tree_sitter_java.Language),
		NameCaptures: []string{"method.name", "constructor.name", "class.name", "interface.name", "enum.name"},
		Captures: map[string]types.Kind{
			"method":      types.KindMethod,
			"constructor": types.KindMethod,
			"class":       types.KindClass,
			"interface":   types.KindInterface,
			"enum":        types.KindEnum,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(method_declaration name: (identifier) @method.name) @method
			(constructor_declaration name: (identifier) @constructor.name) @constructor
			(class_declaration name: (identifier) @class.name) @class
			(record_declaration name: (identifier) @class.name) @class
			(interface_declaration name: (identifier) @interface.name) @interface
			(enum_declaration name: (identifier) @enum.name) @enum
			(import_declaration) @import
			(method_invocation name: (identifier) @call.target) @call
		`,
	},
	"php": {
		Name:         "php",
		Extensions:   []string{".php", ".phtml"},
		languageFn:   lang(tree_sitter_php.LanguagePHP),
		NameCaptures: []string{"function.name", "method.name", "class.name", "interface.name", "trait.name", "enum.name"},
		Captures: map[string]types.Kind{
			"function":  types.KindFunction,
			"method":    types.KindMethod,
			"class":     types.KindClass,
			"interface": types.KindInterface,
			"trait":     types.KindClass,
			"enum":      types.KindEnum,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(class_declaration name: (name) @class.name) @class
			(interface_declaration name: (name) @interface.name) @interface
			(trait_declaration name: (name) @trait.name) @trait
			(enum_declaration name: (name) @enum.name) @enum
			(function_definition name: (name) @function.name) @function
			(method_declaration name: (name) @method.name) @method
			(namespace_use_declaration) @import
			(function_call_expression function: (name) @call.target) @call
		`,
	},
	"rust": {
		Name:         "rust",
		Extensions:   []string{".rs"},
		languageFn:   lang(tree_sitter_rust.Language),
		NameCaptures: []string{"function.name", "method.name", "struct.name", "enum.name", "interface.name", "type.name", "module.name"},
		Captures: map[string]types.Kind{
			"function":  types.KindFunction,
			"method":    types.KindMethod,
			"struct":    types.KindStruct,
			"enum":      types.KindEnum,
			"interface": types.KindInterface,
			"type":      types.KindTypeAlias,
			"module":    types.KindModule,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(impl_item
				body: (declaration_list
					(function_item name: (identifier) @method.name))) @method
			(trait_item
				body: (declaration_list
					(function_item name: (identifier) @method.name))) @method
			(function_item name: (identifier) @function.name) @function
			(struct_item name: (type_identifier) @struct.name) @struct
			(enum_item name: (type_identifier) @enum.name) @enum
			(trait_item name: (type_identifier) @interface.name) @interface
			(type_item name: (type_identifier) @type.name) @type
			(use_declaration) @import
			(mod_item name: (identifier) @module.name) @module
			(call_expression function: (_) @call.target) @call
		`,
	},
	"csharp": {
		Name:         "csharp",
		Extensions:   []string{".cs"},
		languageFn:   lang(tree_sitter_csharp.Language),
		NameCaptures: []string{"method.name", "constructor.name", "class.name", "interface.name", "struct.name", "record.name", "enum.name"},
		Captures: map[string]types.Kind{
			"method":      types.KindMethod,
			"constructor": types.KindMethod,
			"class":       types.KindClass,
			"interface":   types.KindInterface,
			"struct":      types.KindStruct,
			"record":      types.KindClass,
			"enum":        types.KindEnum,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(method_declaration name: (identifier) @method.name) @method
			(constructor_declaration name: (identifier) @constructor.name) @constructor
			(class_declaration name: (identifier) @class.name) @class
			(interface_declaration name: (identifier) @interface.name) @interface
			(struct_declaration name: (identifier) @struct.name) @struct
			(record_declaration name: (identifier) @record.name) @record
			(enum_declaration name: (identifier) @enum.name) @enum
			(using_directive (qualified_name) @import.name) @import
			(using_directive (identifier) @import.name) @import
			(invocation_expression function: (_) @call.target) @call
		`,
	},
	"cpp": {
		Name:         "cpp",
		Extensions:   []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp"},
		languageFn:   lang(tree_sitter_cpp.Language),
		NameCaptures: []string{"function.name", "class.name", "struct.name", "enum.name"},
		Captures: map[string]types.Kind{
			"function": types.KindFunction,
			"class":    types.KindClass,
			"struct":   types.KindStruct,
			"enum":     types.KindEnum,
		},
		CallCaptures: map[string]types.EdgeKind{"call": types.EdgeCalls},
		Query: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
			(class_specifier name: (type_identifier) @class.name) @class
			(struct_specifier name: (type_identifier) @struct.name) @struct
			(enum_specifier name: (type_identifier) @enum.name) @enum
			(preproc_include) @import
			(using_declaration) @import
			(call_expression function: (_) @call.target) @call
		`,
	},
	"zig": {
		Name:         "zig",
		Extensions:   []string{".zig"},
		languageFn:   lang(tree_sitter_zig.Language),
		NameCaptures: []string{"function.name", "struct.name"},
		Captures: map[string]types.Kind{
			"function": types.KindFunction,
			"struct":   types.KindStruct,
		},
		Query: `
			(function_declaration (identifier) @function.name) @function
			(variable_declaration
			  (identifier) @struct.name
			  (struct_declaration) @struct)
		`,
	},
}

// ForExtension returns the Config owning ext, or ok=false.
func ForExtension(ext string) (Config, bool) {
	for _, cfg := range All {
		for _, e := range cfg.Extensions {
			if e == ext {
				return cfg, true
			}
		}
	}
	return Config{}, false
}
