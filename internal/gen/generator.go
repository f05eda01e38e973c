// Package gen walks solved scopes and emits the Swift source that realises
// the dependency graph: one extension per root adding a parameterless
// initializer whose body is a topologically-ordered sequence of let
// bindings followed by the call to the real memberwise initializer.
package gen

import (
	"sort"
	"strings"
	"sync"

	"github.com/safedi/safedi-go/internal/graph"
	"github.com/safedi/safedi-go/internal/model"
)

// header marks generated files.
const header = "// Generated by SafeDI. Do not edit manually."

// Generator emits the dependency-tree source for a solved graph.
type Generator struct {
	graph *graph.Graph
	// imports is the union of observed imports from files contributing at
	// least one instantiable.
	imports []model.ImportStatement
	// additionalModules are caller-supplied module names to import.
	additionalModules []string

	mu   sync.Mutex
	memo map[*graph.Scope]*ScopeGenerator
}

// New creates a Generator.
func New(g *graph.Graph, imports []model.ImportStatement, additionalModules []string) *Generator {
	return &Generator{
		graph:             g,
		imports:           imports,
		additionalModules: additionalModules,
		memo:              make(map[*graph.Scope]*ScopeGenerator),
	}
}

// GenerateFile renders the whole generated file. Generation errors
// short-circuit the affected root but do not abort the others; the
// collected errors are returned alongside the text for the roots that
// succeeded.
func (g *Generator) GenerateFile() (string, []error) {
	var sections []string
	if imports := g.renderImports(); imports != "" {
		sections = append(sections, imports)
	}

	type result struct {
		index int
		code  string
		err   error
	}
	results := make([]result, len(g.graph.Roots))

	var wg sync.WaitGroup
	for i, root := range g.graph.Roots {
		wg.Add(1)
		go func(i int, root *graph.Scope) {
			defer wg.Done()
			sg := g.scopeGenerator(root, kindRoot, model.Dependency{})
			code, err := sg.Generate()
			results[i] = result{index: i, code: code, err: err}
		}(i, root)
	}
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if r.code != "" {
			sections = append(sections, r.code)
		}
	}

	body := strings.Join(sections, "\n\n")
	if body == "" {
		return header + "\n", errs
	}
	return header + "\n\n" + body + "\n", errs
}

// renderImports renders the deduplicated, sorted import block.
func (g *Generator) renderImports() string {
	imports := model.DeduplicateImports(g.imports)
	for _, name := range g.additionalModules {
		imports = append(imports, model.ImportStatement{ModuleName: name})
	}
	imports = model.DeduplicateImports(imports)

	lines := make([]string, 0, len(imports))
	for _, imp := range imports {
		lines = append(lines, imp.Render())
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// scopeGenerator returns the memoised generator for a scope, creating it
// on first use. Readers after the first share the single computation.
func (g *Generator) scopeGenerator(scope *graph.Scope, kind scopeKind, dep model.Dependency) *ScopeGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sg, ok := g.memo[scope]; ok {
		return sg
	}
	sg := &ScopeGenerator{
		gen:        g,
		scope:      scope,
		kind:       kind,
		dependency: dep,
	}
	g.memo[scope] = sg
	return sg
}

// indent prefixes every non-empty line with n levels of four-space
// indentation. Leading whitespace is applied on line boundaries.
func indent(text string, levels int) string {
	if levels == 0 || text == "" {
		return text
	}
	prefix := strings.Repeat("    ", levels)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
