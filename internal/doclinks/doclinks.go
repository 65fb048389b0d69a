// Package doclinks serves a searchable catalog of documentation links loaded from a JSON file.
package doclinks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"crypto-mcp/internal/registry"
)

const (
	// ModuleName is the registry name of the documentation module.
	ModuleName = "DocLinks"
	// ModuleVersion is reported in server listings.
	ModuleVersion = "1.0.0"

	// Tool names.
	SearchDocsName        = "search_docs"
	ListAllDocsName       = "list_all_docs"
	GetDocByNameName      = "get_doc_by_name"
	GetDocsByCategoryName = "get_docs_by_category"

	noDocsError   = "No documentation available"
	noDocsMessage = "Failed to load documentation file"
)

// Doc is one catalog entry. Fields other than name, url and description
// are kept in Extra and written back out unchanged.
type Doc struct {
	Name        string         `json:"name"`
	URL         string         `json:"url"`
	Description string         `json:"description,omitempty"`
	Extra       map[string]any `json:"-"`
}

// UnmarshalJSON decodes the known fields and collects the rest into Extra.
func (d *Doc) UnmarshalJSON(data []byte) error {
	type plain Doc
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "name")
	delete(raw, "url")
	delete(raw, "description")
	if len(raw) > 0 {
		p.Extra = raw
	}
	*d = Doc(p)
	return nil
}

// MarshalJSON writes the entry as a flat object including Extra.
func (d Doc) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+3)
	for k, v := range d.Extra {
		out[k] = v
	}
	out["name"] = d.Name
	out["url"] = d.URL
	if d.Description != "" {
		out["description"] = d.Description
	}
	return json.Marshal(out)
}

// Result is returned by every documentation tool.
type Result struct {
	Success  bool   `json:"success"`
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	Count    *int   `json:"count,omitempty"`
	Results  []Doc  `json:"results,omitempty"`
	Docs     []Doc  `json:"docs,omitempty"`
	Doc      *Doc   `json:"doc,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message"`
}

// LoadFile reads a catalog: a JSON array of Doc.
func LoadFile(path string) ([]Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read docs %q: %w", path, err)
	}
	var docs []Doc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse docs %q: %w", path, err)
	}
	return docs, nil
}

// Module exposes a fixed catalog as registry tools.
type Module struct {
	*registry.Toolset
	docs []Doc
	log  *slog.Logger
}

// NewModule builds the tool table over docs. An empty catalog is allowed;
// every tool then reports that no documentation is available.
func NewModule(docs []Doc, log *slog.Logger) *Module {
	if log == nil {
		log = slog.Default()
	}
	m := &Module{Toolset: registry.NewToolset(ModuleName, ModuleVersion), docs: docs, log: log}
	m.Add(registry.Tool{
		Name:        SearchDocsName,
		Description: "Search documentation by keyword in name or description.",
		InputSchema: registry.StringParams(map[string]string{
			"query": "Search keyword (searches in document name and description)",
		}, "query"),
	}, m.searchDocs)
	m.Add(registry.Tool{
		Name:        ListAllDocsName,
		Description: "List all available documentation links.",
		InputSchema: registry.StringParams(nil),
	}, m.listAllDocs)
	m.Add(registry.Tool{
		Name:        GetDocByNameName,
		Description: "Get a specific document by exact name.",
		InputSchema: registry.StringParams(map[string]string{
			"name": "Document name (case insensitive)",
		}, "name"),
	}, m.getDocByName)
	m.Add(registry.Tool{
		Name:        GetDocsByCategoryName,
		Description: "Get documents by category keyword (e.g., 'server', 'security', 'billing').",
		InputSchema: registry.StringParams(map[string]string{
			"category": "Category keyword (e.g., 'server', 'security', 'billing', 'IP', 'meeting')",
		}, "category"),
	}, m.getDocsByCategory)
	return m
}

func (m *Module) unavailable() Result {
	return Result{Error: noDocsError, Message: noDocsMessage}
}

func (m *Module) match(keyword string) []Doc {
	kw := strings.ToLower(keyword)
	out := []Doc{}
	for _, d := range m.docs {
		if strings.Contains(strings.ToLower(d.Name), kw) || strings.Contains(strings.ToLower(d.Description), kw) {
			out = append(out, d)
		}
	}
	return out
}

func (m *Module) searchDocs(_ context.Context, args map[string]any) (any, error) {
	if len(m.docs) == 0 {
		return m.unavailable(), nil
	}
	query, _ := args["query"].(string)
	results := m.match(query)
	n := len(results)
	m.log.Info("docs search", "query", query, "results", n)
	return Result{
		Success: true,
		Query:   query,
		Count:   &n,
		Results: results,
		Message: fmt.Sprintf("Found %d document(s) matching %q", n, query),
	}, nil
}

func (m *Module) listAllDocs(context.Context, map[string]any) (any, error) {
	if len(m.docs) == 0 {
		return m.unavailable(), nil
	}
	n := len(m.docs)
	return Result{
		Success: true,
		Count:   &n,
		Docs:    m.docs,
		Message: fmt.Sprintf("Retrieved %d document(s)", n),
	}, nil
}

func (m *Module) getDocByName(_ context.Context, args map[string]any) (any, error) {
	if len(m.docs) == 0 {
		return m.unavailable(), nil
	}
	name, _ := args["name"].(string)
	for i := range m.docs {
		if strings.EqualFold(m.docs[i].Name, name) {
			doc := m.docs[i]
			return Result{Success: true, Doc: &doc, Message: "Found document: " + doc.Name}, nil
		}
	}
	return Result{
		Error:   "Document not found",
		Message: fmt.Sprintf("No document found with name %q", name),
	}, nil
}

func (m *Module) getDocsByCategory(_ context.Context, args map[string]any) (any, error) {
	if len(m.docs) == 0 {
		return m.unavailable(), nil
	}
	category, _ := args["category"].(string)
	results := m.match(category)
	n := len(results)
	return Result{
		Success:  true,
		Category: category,
		Count:    &n,
		Results:  results,
		Message:  fmt.Sprintf("Found %d document(s) in category %q", n, category),
	}, nil
}
