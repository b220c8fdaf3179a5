// Package store provides the SQLite snapshot archive: captured page
// snapshots plus a log of the queries run against them. Snapshots are
// immutable rows; re-capturing a URL inserts a new row.
package store

import (
	"database/sql"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/axdom/dbopen"
	"github.com/hazyhaar/axdom/idgen"
)

// Store is the snapshot archive handle.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
	md    *converter.Converter
}

// New wraps an already-open database. The schema must have been applied.
func New(db *sql.DB) *Store {
	return &Store{
		db:    db,
		newID: idgen.UUIDv7(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Open opens (or creates) the archive at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// markdown renders a human-reviewable rendition of snapshot HTML.
// Conversion failures degrade to empty, never fail the capture.
func (s *Store) markdown(html, sourceURL string) string {
	if html == "" {
		return ""
	}
	out, err := s.md.ConvertString(html, converter.WithDomain(sourceURL))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
