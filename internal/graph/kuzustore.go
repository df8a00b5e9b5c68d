//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// Ensure parent directory exists (KuzuDB creates the leaf directory).
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		name STRING,
		kind STRING,
		visibility STRING,
		file STRING,
		line INT64,
		col INT64,
		PRIMARY KEY(name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS CONTRIBUTES_TO(FROM Symbol TO Symbol, position INT64)`,
	`CREATE REL TABLE IF NOT EXISTS REPLACES(FROM Symbol TO Symbol, scope STRING)`,
	`CREATE REL TABLE IF NOT EXISTS MERGES(FROM Symbol TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS INCLUDES(FROM Symbol TO Symbol, position INT64)`,
	`CREATE REL TABLE IF NOT EXISTS SUBCOMPONENT(FROM Symbol TO Symbol, position INT64)`,
	`CREATE REL TABLE IF NOT EXISTS EXCLUDES(FROM Symbol TO Symbol)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddSymbol inserts or updates a Symbol node.
func (s *KuzuStore) AddSymbol(_ context.Context, node SymbolNode) error {
	return s.exec(
		`MERGE (s:Symbol {name: $name})
		 SET s.kind = $kind, s.visibility = $vis, s.file = $file, s.line = $line, s.col = $col`,
		map[string]any{
			"name": node.Name,
			"kind": string(node.Kind),
			"vis":  node.Visibility,
			"file": node.File,
			"line": int64(node.Line),
			"col":  int64(node.Column),
		},
	)
}

// AddEdge inserts a relationship edge between two symbols.
// The Cypher statement is chosen based on the EdgeKind.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	cypher, err := edgeCypher(edge.Kind)
	if err != nil {
		return err
	}
	params := map[string]any{
		"src": edge.SourceID,
		"dst": edge.TargetID,
	}
	switch edge.Kind {
	case EdgeKindContributesTo, EdgeKindIncludes, EdgeKindSubcomponent:
		params["pos"] = int64(edge.Position)
	case EdgeKindReplaces:
		params["scope"] = edge.Scope
	}
	return s.exec(cypher, params)
}

// edgeCypher returns the MATCH-CREATE Cypher for the given edge kind.
func edgeCypher(kind EdgeKind) (string, error) {
	const match = "MATCH (a:Symbol {name: $src}), (b:Symbol {name: $dst}) "
	switch kind {
	case EdgeKindContributesTo, EdgeKindIncludes, EdgeKindSubcomponent:
		return match + fmt.Sprintf("CREATE (a)-[:%s {position: $pos}]->(b)", kind), nil
	case EdgeKindReplaces:
		return match + "CREATE (a)-[:REPLACES {scope: $scope}]->(b)", nil
	case EdgeKindMerges, EdgeKindExcludes:
		return match + fmt.Sprintf("CREATE (a)-[:%s]->(b)", kind), nil
	default:
		return "", fmt.Errorf("kuzu: unsupported edge kind: %s", kind)
	}
}

// ---------- Read operations ----------

const symbolColumns = "s.name, s.kind, s.visibility, s.file, s.line, s.col"

// GetSymbol retrieves a single Symbol node by name, or nil if not found.
func (s *KuzuStore) GetSymbol(_ context.Context, name string) (*SymbolNode, error) {
	rows, err := s.query(
		"MATCH (s:Symbol {name: $name}) RETURN "+symbolColumns,
		map[string]any{"name": name},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToSymbol(rows[0]), nil
}

// QuerySymbols returns symbols whose name contains the query string,
// case-insensitively, ordered by name. A limit <= 0 returns all matches.
func (s *KuzuStore) QuerySymbols(_ context.Context, queryStr string, limit int) ([]SymbolNode, error) {
	cypher := "MATCH (s:Symbol) WHERE lower(s.name) CONTAINS lower($q) RETURN " + symbolColumns + " ORDER BY s.name"
	params := map[string]any{"q": queryStr}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]SymbolNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToSymbol(r))
	}
	return out, nil
}

// Contributors returns the modules contributed to scope in discovery order.
func (s *KuzuStore) Contributors(_ context.Context, scope string) ([]string, error) {
	rows, err := s.query(
		`MATCH (m:Symbol)-[r:CONTRIBUTES_TO]->(:Symbol {name: $scope})
		 RETURN m.name ORDER BY r.position`,
		map[string]any{"scope": scope},
	)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

// Resolved returns the stored resolution of target's merge request, or nil
// if target has none. Excludes are sorted by name.
func (s *KuzuStore) Resolved(_ context.Context, target string) (*Resolution, error) {
	params := map[string]any{"target": target}
	rows, err := s.query(
		"MATCH (:Symbol {name: $target})-[:MERGES]->(scope:Symbol) RETURN scope.name",
		params,
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	res := &Resolution{Target: target, Scope: toString(rows[0][0])}

	ordered := func(rel EdgeKind) ([]string, error) {
		rows, err := s.query(
			fmt.Sprintf("MATCH (:Symbol {name: $target})-[r:%s]->(m:Symbol) RETURN m.name ORDER BY r.position", rel),
			params,
		)
		if err != nil {
			return nil, err
		}
		return firstColumn(rows), nil
	}
	if res.Includes, err = ordered(EdgeKindIncludes); err != nil {
		return nil, err
	}
	if res.SubMembers, err = ordered(EdgeKindSubcomponent); err != nil {
		return nil, err
	}
	rows, err = s.query(
		"MATCH (:Symbol {name: $target})-[:EXCLUDES]->(m:Symbol) RETURN m.name ORDER BY m.name",
		params,
	)
	if err != nil {
		return nil, err
	}
	res.Excludes = firstColumn(rows)
	return res, nil
}

// ---------- Edge enumeration ----------

// GetAllEdges returns all edges across all relationship tables.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	var edges []Edge
	for _, kind := range EdgeKinds {
		var cypher string
		switch kind {
		case EdgeKindContributesTo, EdgeKindIncludes, EdgeKindSubcomponent:
			cypher = fmt.Sprintf("MATCH (a:Symbol)-[r:%s]->(b:Symbol) RETURN a.name, b.name, r.position, '' ORDER BY a.name, r.position", kind)
		case EdgeKindReplaces:
			cypher = "MATCH (a:Symbol)-[r:REPLACES]->(b:Symbol) RETURN a.name, b.name, 0, r.scope ORDER BY a.name, b.name"
		default:
			cypher = fmt.Sprintf("MATCH (a:Symbol)-[:%s]->(b:Symbol) RETURN a.name, b.name, 0, '' ORDER BY a.name, b.name", kind)
		}
		rows, err := s.query(cypher, nil)
		if err != nil {
			// Table may not exist yet; skip.
			continue
		}
		for _, r := range rows {
			edges = append(edges, Edge{
				SourceID: toString(r[0]),
				TargetID: toString(r[1]),
				Kind:     kind,
				Position: toInt(r[2]),
				Scope:    toString(r[3]),
			})
		}
	}
	return edges, nil
}

// ---------- Stats ----------

// Stats returns counts of symbols and edges.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	symbols, err := s.count("MATCH (n:Symbol) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	stats := &GraphStats{SymbolCount: symbols}
	for _, kind := range EdgeKinds {
		// Table name is a fixed internal constant, not user input.
		n, err := s.count(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", kind))
		if err != nil {
			// Table may not exist yet; treat as zero.
			continue
		}
		stats.EdgeCount += n
		switch kind {
		case EdgeKindContributesTo:
			stats.ContributionCount = n
		case EdgeKindMerges:
			stats.MergeCount = n
		}
	}
	return stats, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func firstColumn(rows [][]any) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out
}

// rowToSymbol converts a 6-column result row into a SymbolNode.
// Column order: name, kind, visibility, file, line, col.
func rowToSymbol(r []any) *SymbolNode {
	return &SymbolNode{
		Name:       toString(r[0]),
		Kind:       SymbolKind(toString(r[1])),
		Visibility: toString(r[2]),
		File:       toString(r[3]),
		Line:       toInt(r[4]),
		Column:     toInt(r[5]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
