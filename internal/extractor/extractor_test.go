package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/types"
)

const goSample = `package sample

import "fmt"

// Greet returns a friendly greeting.
func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}

type Greeter struct{}

func (g *Greeter) Greet(name string) string {
	return Greet(name)
}
`

func TestExtractFileGoFunctionsAndCalls(t *testing.T) {
	e := New()
	result := e.ExtractFile("sample.go", []byte(goSample))
	require.Empty(t, result.Errors)

	var names []string
	for _, n := range result.Nodes {
		names = append(names, string(n.Kind)+":"+n.Name)
	}
	require.Contains(t, names, "function:Greet")
	require.Contains(t, names, "method:Greet")
	require.Contains(t, names, "type_alias:Greeter")

	var hasFileContains bool
	for _, ed := range result.Edges {
		if ed.Kind == types.EdgeContains {
			hasFileContains = true
		}
	}
	require.True(t, hasFileContains)

	var callNames []string
	for _, r := range result.Unresolved {
		if r.ReferenceKind == types.EdgeCalls {
			callNames = append(callNames, r.ReferenceName)
		}
	}
	require.Contains(t, callNames, "Sprintf")
	require.Contains(t, callNames, "Greet")
}

func TestExtractFileUnsupportedExtensionIsEmpty(t *testing.T) {
	e := New()
	result := e.ExtractFile("README.md", []byte("# hello"))
	require.Empty(t, result.Nodes)
	require.Empty(t, result.Errors)
}

func TestExtractFileDocstringFromLeadingComment(t *testing.T) {
	e := New()
	result := e.ExtractFile("sample.go", []byte(goSample))
	for _, n := range result.Nodes {
		if n.Name == "Greet" && n.Kind == types.KindFunction {
			require.Equal(t, "Greet returns a friendly greeting.", n.Docstring)
			return
		}
	}
	t.Fatal("Greet function node not found")
}
