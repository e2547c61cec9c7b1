// Package sqlite persists documents and their chunks in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"docassist/internal/domain"
	"docassist/internal/repository/sqlite/migrations"
)

// Store is a SQLite-backed domain.DocumentRepository.
type Store struct {
	db   *sql.DB
	path string
}

var _ domain.DocumentRepository = (*Store)(nil)

// NewStore opens (creating if needed) the database file at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Create stores a new document together with any files and chunks it
// already carries. Chunks are attributed to no particular file.
func (s *Store) Create(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO documents (id, owner_id, created_at) VALUES (?, ?, ?)",
		doc.ID, doc.OwnerID, doc.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	for i, name := range doc.SourceFilenames {
		if err := insertFile(ctx, tx, doc.ID, i, name); err != nil {
			return err
		}
	}
	if err := insertChunks(ctx, tx, doc.ID, doc.Chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AppendFile records one ingested file and its chunks in a single
// transaction. Chunks are numbered from the document's highest stored id
// plus one, whatever ids they carry; the first assigned id is returned.
func (s *Store) AppendFile(ctx context.Context, documentID, filename string, chunks []domain.Chunk) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// write first so the transaction holds the write lock before reading ids
	res, err := tx.ExecContext(ctx, `
		INSERT INTO document_files (document_id, position, filename)
		SELECT d.id, (SELECT COUNT(*) FROM document_files f WHERE f.document_id = d.id), ?
		FROM documents d WHERE d.id = ?
	`, filename, documentID)
	if err != nil {
		return 0, fmt.Errorf("saving file: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}

	var next, dimBytes int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(id) + 1, 0),
			COALESCE((SELECT length(embedding) FROM chunks WHERE document_id = ? LIMIT 1), 0)
		FROM chunks WHERE document_id = ?
	`, documentID, documentID).Scan(&next, &dimBytes)
	if err != nil {
		return 0, fmt.Errorf("reading next chunk id: %w", err)
	}

	dim := dimBytes / 8
	assigned := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim {
			return 0, fmt.Errorf("%w: chunk %d has %d values, document has %d",
				domain.ErrDimensionMismatch, next+i, len(c.Embedding), dim)
		}
		c.ID = next + i
		assigned[i] = c
	}
	if err := insertChunks(ctx, tx, documentID, assigned); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return next, nil
}

// Get loads a document with its chunks ordered by id.
func (s *Store) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	var doc domain.Document
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, created_at FROM documents WHERE id = ?", documentID).
		Scan(&doc.ID, &doc.OwnerID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if doc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	if doc.SourceFilenames, err = s.filenames(ctx, documentID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, embedding FROM chunks WHERE document_id = ? ORDER BY id", documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat64Slice(blob)
		doc.Chunks = append(doc.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return &doc, nil
}

// List returns the documents of an owner, newest first. An empty owner
// lists every document.
func (s *Store) List(ctx context.Context, ownerID string) ([]domain.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.owner_id, d.created_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d
		WHERE ? = '' OR d.owner_id = ?
		ORDER BY d.created_at DESC, d.id
	`, ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}

	var infos []domain.DocumentInfo //nolint:prealloc // size unknown from query
	for rows.Next() {
		var info domain.DocumentInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &info.OwnerID, &createdAt, &info.ChunkCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	rows.Close()

	for i := range infos {
		if infos[i].SourceFilenames, err = s.filenames(ctx, infos[i].ID); err != nil {
			return nil, err
		}
	}
	return infos, nil
}

// Delete removes a document and everything attached to it.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) filenames(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT filename FROM document_files WHERE document_id = ? ORDER BY position", documentID)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return names, nil
}

func insertFile(ctx context.Context, tx *sql.Tx, documentID string, position int, filename string) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO document_files (document_id, position, filename) VALUES (?, ?, ?)",
		documentID, position, filename); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	return nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, documentID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (document_id, id, text, embedding) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, documentID, c.ID, c.Text, float64SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", c.ID, err)
		}
	}
	return nil
}

func float64SliceToBytes(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func bytesToFloat64Slice(b []byte) []float64 {
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}
