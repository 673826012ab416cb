// Package types defines the data model shared across the codegraph engine:
// nodes, edges, file provenance, unresolved references, vectors and the
// shapes returned by search, traversal and context assembly.
package types

// Kind identifies the declared or aggregated entity a Node represents.
type Kind string

const (
	KindFile       Kind = "file"
	KindFunction   Kind = "function"
	KindMethod     Kind = "method"
	KindClass      Kind = "class"
	KindInterface  Kind = "interface"
	KindTrait      Kind = "trait"
	KindProtocol   Kind = "protocol"
	KindStruct     Kind = "struct"
	KindEnum       Kind = "enum"
	KindEnumMember Kind = "enum_member"
	KindTypeAlias  Kind = "type_alias"
	KindProperty   Kind = "property"
	KindField      Kind = "field"
	KindVariable   Kind = "variable"
	KindConstant   Kind = "constant"
	KindParameter  Kind = "parameter"
	KindModule     Kind = "module"
	KindNamespace  Kind = "namespace"
	KindComponent  Kind = "component"
	KindRoute      Kind = "route"
	KindImport     Kind = "import"
	KindExport     Kind = "export"
)

// Visibility is the declared access level of a Node.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityInternal  Visibility = "internal"
)

// EdgeKind identifies the typed relation an Edge represents.
type EdgeKind string

const (
	EdgeContains    EdgeKind = "contains"
	EdgeCalls       EdgeKind = "calls"
	EdgeImports     EdgeKind = "imports"
	EdgeReferences  EdgeKind = "references"
	EdgeExtends     EdgeKind = "extends"
	EdgeImplements  EdgeKind = "implements"
	EdgeReturnsType EdgeKind = "returns_type"
	EdgeRenders     EdgeKind = "renders"
	EdgeTypeOf      EdgeKind = "type_of"
)

// DependencyEdgeKinds are the edge kinds that signal "depends on" for the
// purposes of impact-radius traversal (spec §4.E).
var DependencyEdgeKinds = []EdgeKind{EdgeCalls, EdgeReferences, EdgeImports, EdgeExtends, EdgeImplements}

// Node is one declared or aggregated code entity (spec §3).
type Node struct {
	ID            string `json:"id"`
	Kind          Kind   `json:"kind"`
	Name          string `json:"name"`
	QualifiedName string `json:"qualifiedName"`
	FilePath      string `json:"filePath"`
	Language      string `json:"language"`

	StartLine   int `json:"startLine"`
	EndLine     int `json:"endLine"`
	StartColumn int `json:"startColumn"`
	EndColumn   int `json:"endColumn"`

	Docstring  string     `json:"docstring,omitempty"`
	Signature  string     `json:"signature,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`

	IsExported bool `json:"isExported,omitempty"`
	IsAsync    bool `json:"isAsync,omitempty"`
	IsStatic   bool `json:"isStatic,omitempty"`
	IsAbstract bool `json:"isAbstract,omitempty"`

	Decorators     []string `json:"decorators,omitempty"`
	TypeParameters []string `json:"typeParameters,omitempty"`

	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

// Edge is a directed, typed relation between two node IDs (spec §3).
type Edge struct {
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Kind     EdgeKind       `json:"kind"`
	Line     int            `json:"line,omitempty"`
	Column   int            `json:"column,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FileError is one extraction error captured against a file (severity-tagged).
type FileError struct {
	Severity string `json:"severity"` // "error" | "warning"
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
}

// FileRecord is ingest provenance for one path (spec §3).
type FileRecord struct {
	Path        string      `json:"path"`
	ContentHash string      `json:"contentHash"`
	Language    string      `json:"language"`
	Size        int64       `json:"size"`
	ModifiedAt  int64       `json:"modifiedAt"`
	IndexedAt   int64       `json:"indexedAt"`
	NodeCount   int         `json:"nodeCount"`
	Errors      []FileError `json:"errors,omitempty"`
}

// UnresolvedReference is a textual reference captured by the extractor,
// awaiting resolution (spec §3). Rows are not removed when resolved: a
// file's rows are replaced when it is re-extracted and deleted with it, and
// every resolver pass re-reads the whole set.
type UnresolvedReference struct {
	FromNodeID    string   `json:"fromNodeId"`
	ReferenceName string   `json:"referenceName"`
	ReferenceKind EdgeKind `json:"referenceKind"`
	Line          int      `json:"line"`
	Column        int      `json:"column"`
	FilePath      string   `json:"filePath"`
	Language      string   `json:"language"`
	Candidates    []string `json:"candidates,omitempty"`
}

// Vector pairs a node with its embedding (spec §3). At most one per node;
// Dimension and ModelID describe how Values should be interpreted.
type Vector struct {
	NodeID    string    `json:"nodeId"`
	Dimension int       `json:"dimension"`
	ModelID   string    `json:"modelId"`
	Values    []float32 `json:"-"`
}

// ProjectMetadata is the key/value provenance and settings store (spec §3).
type ProjectMetadata struct {
	SchemaVersion           int            `json:"schemaVersion"`
	FirstIndexedVersion     string         `json:"firstIndexedVersion"`
	FirstIndexedAt          int64          `json:"firstIndexedAt"`
	LastSyncedAt            int64          `json:"lastSyncedAt"`
	LastSyncedByVersion     string         `json:"lastSyncedByVersion"`
	LastExternalImportAt    int64          `json:"lastExternalImportAt,omitempty"`
	LastExternalImportPath  string         `json:"lastExternalImportPath,omitempty"`
	LastExternalImportStats map[string]int `json:"lastExternalImportStats,omitempty"`
}

// SearchResult is one ranked hit from Searcher.Search (spec §4.F).
type SearchResult struct {
	Node       Node    `json:"node"`
	Final      float64 `json:"score"`
	Lexical    float64 `json:"-"`
	KindBoost  float64 `json:"-"`
	BM25       float64 `json:"-"`
	MatchedVia string  `json:"matchedVia,omitempty"`
}

// Direction constrains a traversal relative to the start node(s).
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// TraverseOptions bounds a BFS traversal (spec §4.E).
type TraverseOptions struct {
	MaxDepth  int
	EdgeKinds []EdgeKind
	NodeKinds []Kind
	Direction Direction
	Limit     int
}

// Subgraph is the (nodes, edges, roots) triple returned by traversal and
// context assembly (spec §4.E, GLOSSARY).
type Subgraph struct {
	Nodes map[string]Node `json:"nodes"`
	Edges []Edge          `json:"edges"`
	Roots []string        `json:"roots"`
}

// NewSubgraph returns an empty, initialized Subgraph.
func NewSubgraph() *Subgraph {
	return &Subgraph{Nodes: make(map[string]Node)}
}

// PathStep is one element of an interleaved [node, edge?, node, ...] path.
type PathStep struct {
	Node *Node `json:"node,omitempty"`
	Edge *Edge `json:"edge,omitempty"`
}

// CodeBlock is one excerpt extracted by the context builder (spec §4.H).
type CodeBlock struct {
	NodeID    string `json:"nodeId"`
	FilePath  string `json:"filePath"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Code      string `json:"code"`
	Truncated bool   `json:"truncated,omitempty"`
}

// TaskContextStats summarizes a TaskContext (spec §4.H step 7).
type TaskContextStats struct {
	NodeCount      int `json:"nodeCount"`
	EdgeCount      int `json:"edgeCount"`
	FileCount      int `json:"fileCount"`
	CodeBlockCount int `json:"codeBlockCount"`
	TotalCodeSize  int `json:"totalCodeSize"`
}

// TaskContext is the result of Context.Build (spec §4.H).
type TaskContext struct {
	Task           string           `json:"task"`
	Summary        string           `json:"summary"`
	InferredFilter AutoScope        `json:"inferredFilter"`
	Subgraph       Subgraph         `json:"subgraph"`
	CodeBlocks     []CodeBlock      `json:"codeBlocks"`
	Stats          TaskContextStats `json:"stats"`
}

// AutoScope is the Handler/Context side inference of kind/language/pathHint
// from a natural-language task or query (spec §4.H, §4.J, GLOSSARY).
type AutoScope struct {
	Kind        Kind   `json:"kind,omitempty"`
	Language    string `json:"language,omitempty"`
	PathHint    string `json:"pathHint,omitempty"`
	Exploratory bool   `json:"exploratory,omitempty"`
}
