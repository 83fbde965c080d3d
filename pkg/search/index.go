// Package search keeps a SQLite full-text index over file contents.
package search

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens an index that lives only as long as the process.
const MemoryPath = ":memory:"

// Entry is one file as it is indexed.
type Entry struct {
	ID        string
	Path      string
	Name      string
	Content   string
	UpdatedAt int64
}

// Hit is a search result.
type Hit struct {
	ID        string
	Path      string
	Name      string
	UpdatedAt int64
	Snippet   string
}

// Index manages the search index
type Index struct {
	db     *sql.DB
	useFTS bool
}

// NewIndex creates a new search index
func NewIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	idx := &Index{db: db}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// init creates the database schema
func (idx *Index) init() error {
	idx.useFTS = idx.checkFTS5Support()

	metaSchema := `
	CREATE TABLE IF NOT EXISTS docs_meta (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_docs_meta_path ON docs_meta(path);
	`
	if _, err := idx.db.Exec(metaSchema); err != nil {
		return fmt.Errorf("create index schema: %w", err)
	}

	if idx.useFTS {
		ftsSchema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
			id UNINDEXED,
			name,
			content,
			tokenize = 'porter unicode61'
		);
		`
		if _, err := idx.db.Exec(ftsSchema); err != nil {
			// If FTS creation fails, disable FTS and continue
			idx.useFTS = false
		}
	}

	return nil
}

// checkFTS5Support checks if FTS5 module is available
func (idx *Index) checkFTS5Support() bool {
	_, err := idx.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS fts5_test USING fts5(content)")
	if err != nil {
		return false
	}
	_, _ = idx.db.Exec("DROP TABLE IF EXISTS fts5_test")
	return true
}

// FullText reports whether FTS5 is in use. Without it searches fall back to
// LIKE matching.
func (idx *Index) FullText() bool {
	return idx.useFTS
}

// Rebuild replaces the whole index with entries in one transaction.
func (idx *Index) Rebuild(entries []Entry) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		if _, err := tx.Exec("DELETE FROM docs_fts"); err != nil {
			return fmt.Errorf("clear fts: %w", err)
		}
	}
	if _, err := tx.Exec("DELETE FROM docs_meta"); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	for _, e := range entries {
		if idx.useFTS {
			_, err = tx.Exec(`INSERT INTO docs_fts (id, name, content) VALUES (?, ?, ?)`,
				e.ID, e.Name, e.Content)
			if err != nil {
				return fmt.Errorf("index %s: %w", e.Path, err)
			}
		}
		_, err = tx.Exec(`
			INSERT INTO docs_meta (id, path, name, content, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, e.ID, e.Path, e.Name, e.Content, e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("index %s: %w", e.Path, err)
		}
	}

	return tx.Commit()
}

// Options for searching
type Options struct {
	// Folder restricts hits to paths below this folder path.
	Folder string
	Limit  int
}

// Search performs a full-text search
func (idx *Index) Search(query string, opts *Options) ([]Hit, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Limit == 0 {
		opts.Limit = 50
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if idx.useFTS {
		return idx.searchWithFTS(query, opts)
	}
	return idx.searchWithoutFTS(query, opts)
}

func folderCondition(column string, opts *Options) (string, []any) {
	folder := strings.Trim(opts.Folder, "/")
	if folder == "" {
		return "", nil
	}
	return fmt.Sprintf(" AND %s LIKE ? ESCAPE '\\'", column), []any{escapeLike(folder) + "/%"}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ftsQuery quotes each term so user input cannot inject FTS syntax.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// searchWithFTS performs search using FTS5
func (idx *Index) searchWithFTS(query string, opts *Options) ([]Hit, error) {
	folderClause, args := folderCondition("m.path", opts)

	searchQuery := fmt.Sprintf(`
		SELECT
			m.id, m.path, m.name, m.updated_at,
			snippet(docs_fts, 2, '[', ']', '...', 12) as snippet
		FROM docs_fts
		JOIN docs_meta m ON docs_fts.id = m.id
		WHERE docs_fts MATCH ?%s
		ORDER BY rank, m.updated_at DESC
		LIMIT ?
	`, folderClause)

	args = append([]any{ftsQuery(query)}, args...)
	args = append(args, opts.Limit)

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var results []Hit
	for rows.Next() {
		var hit Hit
		if err := rows.Scan(&hit.ID, &hit.Path, &hit.Name, &hit.UpdatedAt, &hit.Snippet); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		results = append(results, hit)
	}
	return results, rows.Err()
}

// searchWithoutFTS performs search using LIKE queries on metadata table
func (idx *Index) searchWithoutFTS(query string, opts *Options) ([]Hit, error) {
	searchPattern := "%" + strings.ReplaceAll(escapeLike(query), " ", "%") + "%"
	folderClause, folderArgs := folderCondition("path", opts)

	searchQuery := fmt.Sprintf(`
		SELECT id, path, name, updated_at, content
		FROM docs_meta
		WHERE (name LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')%s
		ORDER BY updated_at DESC
		LIMIT ?
	`, folderClause)

	args := []any{searchPattern, searchPattern}
	args = append(args, folderArgs...)
	args = append(args, opts.Limit)

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var results []Hit
	for rows.Next() {
		var hit Hit
		var content string
		if err := rows.Scan(&hit.ID, &hit.Path, &hit.Name, &hit.UpdatedAt, &content); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hit.Snippet = snippet(content, query)
		results = append(results, hit)
	}
	return results, rows.Err()
}

const snippetRunes = 80

// snippet returns the line of content holding the first query term.
func snippet(content, query string) string {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return ""
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(strings.ToLower(line), terms[0]) {
			line = strings.TrimSpace(line)
			if runes := []rune(line); len(runes) > snippetRunes {
				line = string(runes[:snippetRunes]) + "..."
			}
			return line
		}
	}
	return ""
}

// Close closes the index
func (idx *Index) Close() error {
	return idx.db.Close()
}
