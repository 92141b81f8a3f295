// Package history keeps the documents generated by the server in SQLite so
// they can be downloaded again later.
package history

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"tomgalvin.uk/monoform/internal/bitmap"
	"tomgalvin.uk/monoform/internal/codegen"
)

//go:embed schema.sql
var schema string

type Document struct {
	Id        int
	Uuid      uuid.UUID
	Symbol    string
	Mode      bitmap.Mode
	Flavor    codegen.Flavor
	Width     int
	Height    int
	Threshold int
	Length    int
	Body      string
	CreatedAt time.Time
}

// File name offered when the document is downloaded.
func (d *Document) FileName() string {
	if d.Flavor == codegen.Snippet {
		return codegen.SnippetSymbol(d.Width, d.Height) + ".h"
	}
	return d.Symbol + ".h"
}

type Repository struct {
	Db *sql.DB
}

func Open(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open database:\n%w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Couldn't initialise database:\n%w", err)
	}
	return &Repository{Db: db}, nil
}

func (r *Repository) Close() error {
	return r.Db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

const documentColumns = `id, uuid, symbol, mode, flavor, width, height, threshold, length, body, created_at`

func scanDocument(s scanner) (*Document, error) {
	var d Document
	var uuidString, mode, flavor string
	var createdAt int64
	if err := s.Scan(&d.Id, &uuidString, &d.Symbol, &mode, &flavor,
		&d.Width, &d.Height, &d.Threshold, &d.Length, &d.Body, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if d.Uuid, err = uuid.Parse(uuidString); err != nil {
		return nil, fmt.Errorf("Stored document has a malformed UUID:\n%w", err)
	}
	if d.Mode, err = bitmap.ParseMode(mode); err != nil {
		return nil, err
	}
	if d.Flavor, err = codegen.ParseFlavor(flavor); err != nil {
		return nil, err
	}
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &d, nil
}

// Returns nil without an error if no document has that UUID.
func (r *Repository) Get(u uuid.UUID) (*Document, error) {
	row := r.Db.QueryRow(`
		SELECT `+documentColumns+`
		FROM document
		WHERE uuid = ?`, u.String())

	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("Failed to read document:\n%w", err)
	}
	return d, nil
}

// Newest documents first, without their bodies.
func (r *Repository) List(limit int) ([]Document, error) {
	rows, err := r.Db.Query(`
		SELECT id, uuid, symbol, mode, flavor, width, height, threshold, length, '', created_at
		FROM document
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("Query execution failed:\n%w", err)
	}
	defer rows.Close()

	documents := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("Row scanning failed:\n%w", err)
		}
		documents = append(documents, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Error iterating rows:\n%w", err)
	}

	return documents, nil
}

// Run operations in a transaction, committing afterward, or rolling back if the
// passed function returns an error
func (r *Repository) Transact(f func(*sql.Tx) error) error {
	tx, err := r.Db.Begin()
	if err != nil {
		return err
	}

	err = f(tx)
	if err != nil {
		err2 := tx.Rollback()
		if err2 != nil {
			return fmt.Errorf("Failed to roll back transaction: %w\n\nAfter handling: %v", err2, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Failed to commit transaction:\n%w", err)
	}
	return nil
}

// Inserts d, filling in its Id, and its Uuid and CreatedAt when unset.
func (r *Repository) Create(tx *sql.Tx, d *Document) error {
	if d.Uuid == uuid.Nil {
		d.Uuid = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	row := tx.QueryRow(`
		INSERT INTO document(uuid, symbol, mode, flavor, width, height, threshold, length, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		d.Uuid.String(), d.Symbol, d.Mode.String(), d.Flavor.String(),
		d.Width, d.Height, d.Threshold, d.Length, d.Body, d.CreatedAt.UnixMilli(),
	)
	if err := row.Scan(&d.Id); err != nil {
		return fmt.Errorf("Failed to insert into document:\n%w", err)
	}
	return nil
}

// Reports whether a document was removed.
func (r *Repository) Delete(tx *sql.Tx, u uuid.UUID) (bool, error) {
	res, err := tx.Exec(`DELETE FROM document WHERE uuid = ?`, u.String())
	if err != nil {
		return false, fmt.Errorf("Failed to delete document %s:\n%w", u, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
