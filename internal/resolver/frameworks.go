package resolver

import (
	"strings"
	"unicode"

	"github.com/standardbeagle/codegraph/internal/types"
)

// Framework offers a resolve hook for references it recognizes: PascalCase
// components, useX-style hooks, context objects, and route file-path
// conventions (spec §4.D strategy 2). Confidence is constrained to
// [0.75, 0.95] per spec.
type Framework interface {
	Name() string
	Detect(c *Context) bool
	Resolve(ref types.UnresolvedReference, c *Context) (nodeID string, confidence float64, ok bool)
}

// DetectFrameworks runs every known framework's detector against the warmed
// context and returns those that matched.
func DetectFrameworks(c *Context) []Framework {
	candidates := []Framework{
		reactLikeFramework{},
		routeFramework{},
		phpAppFramework{},
	}
	var active []Framework
	for _, f := range candidates {
		if f.Detect(c) {
			active = append(active, f)
		}
	}
	return active
}

// reactLikeFramework recognizes JSX-component libraries (React, Preact,
// Vue's composition API) by their two defining conventions: PascalCase
// component references and camelCase useX hook calls.
type reactLikeFramework struct{}

func (reactLikeFramework) Name() string { return "react-like" }

func (reactLikeFramework) Detect(c *Context) bool {
	for _, n := range c.NodesByKind(types.KindComponent) {
		_ = n
		return true
	}
	for lang := range map[string]bool{"javascript": true, "typescript": true} {
		for _, n := range c.byKind[types.KindFunction] {
			if n.Language == lang && isPascalCase(n.Name) {
				return true
			}
		}
	}
	return false
}

func (reactLikeFramework) Resolve(ref types.UnresolvedReference, c *Context) (string, float64, bool) {
	if ref.Language != "javascript" && ref.Language != "typescript" {
		return "", 0, false
	}
	name := ref.ReferenceName
	switch {
	case isPascalCase(name):
		if n, ok := bestMatch(c.NodesByName(name), types.KindComponent, types.KindFunction, types.KindClass); ok {
			return n.ID, 0.9, true
		}
	case isHookName(name):
		if n, ok := bestMatch(c.NodesByName(name), types.KindFunction); ok {
			return n.ID, 0.85, true
		}
	case strings.HasSuffix(name, "Context"):
		if n, ok := bestMatch(c.NodesByName(name), types.KindVariable, types.KindConstant); ok {
			return n.ID, 0.8, true
		}
	}
	return "", 0, false
}

// routeFramework recognizes server-framework route handlers by file-path
// convention: a reference resolved against the handler exported by a file
// whose path segment matches the route name (e.g. routes/users.go -> Users).
type routeFramework struct{}

func (routeFramework) Name() string { return "route-convention" }

func (routeFramework) Detect(c *Context) bool {
	for _, n := range c.NodesByKind(types.KindRoute) {
		_ = n
		return true
	}
	return false
}

func (routeFramework) Resolve(ref types.UnresolvedReference, c *Context) (string, float64, bool) {
	candidates := c.NodesByName(ref.ReferenceName)
	for _, n := range candidates {
		if n.Kind == types.KindRoute || n.Kind == types.KindFunction {
			if strings.Contains(strings.ToLower(n.FilePath), strings.ToLower(ref.ReferenceName)) {
				return n.ID, 0.8, true
			}
		}
	}
	return "", 0, false
}

// phpAppFramework recognizes Laravel/Symfony-style facade and service
// references: PascalCase class-like names resolved project-wide regardless
// of an explicit import, since these frameworks rely on autoloading/facades.
type phpAppFramework struct{}

func (phpAppFramework) Name() string { return "php-app-framework" }

func (phpAppFramework) Detect(c *Context) bool {
	return len(c.byKind[types.KindClass]) > 0 && hasLanguage(c, "php")
}

func (phpAppFramework) Resolve(ref types.UnresolvedReference, c *Context) (string, float64, bool) {
	if ref.Language != "php" || !isPascalCase(ref.ReferenceName) {
		return "", 0, false
	}
	if n, ok := bestMatch(c.NodesByName(ref.ReferenceName), types.KindClass, types.KindInterface); ok {
		return n.ID, 0.78, true
	}
	return "", 0, false
}

func hasLanguage(c *Context, lang string) bool {
	for _, nodes := range c.byFile {
		for _, n := range nodes {
			if n.Language == lang {
				return true
			}
		}
	}
	return false
}

func bestMatch(candidates []types.Node, preferred ...types.Kind) (types.Node, bool) {
	if len(candidates) == 0 {
		return types.Node{}, false
	}
	for _, k := range preferred {
		for _, n := range candidates {
			if n.Kind == k {
				return n, true
			}
		}
	}
	return candidates[0], true
}

func isPascalCase(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)
	return unicode.IsUpper(r[0])
}

func isHookName(name string) bool {
	if !strings.HasPrefix(name, "use") || len(name) <= 3 {
		return false
	}
	return unicode.IsUpper(rune(name[3]))
}
