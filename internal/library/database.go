package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// originalFilenameQuery reads the import-time filename of every asset. The
// column keeps the name the asset arrived with even after the library
// renames the file on disk, which is exactly the name the remote side knows.
const originalFilenameQuery = `SELECT ZORIGINALFILENAME FROM ZADDITIONALASSETATTRIBUTES`

// databaseStrategy reads filenames straight out of the library's Photos.sqlite.
// This is the fastest and most complete listing when the database is present
// and readable.
type databaseStrategy struct {
	libraryPath string
}

// NewDatabaseStrategy lists filenames from the library database under
// libraryPath.
func NewDatabaseStrategy(libraryPath string) Strategy {
	return &databaseStrategy{libraryPath: libraryPath}
}

func (s *databaseStrategy) Name() string { return "database" }

func (s *databaseStrategy) List(ctx context.Context) ([]string, error) {
	dbPath := filepath.Join(s.libraryPath, "database", "Photos.sqlite")
	if _, err := os.Stat(dbPath); err != nil {
		return nil, ErrNotApplicable
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, originalFilenameQuery)
	if err != nil {
		return nil, fmt.Errorf("querying original filenames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning original filename: %w", err)
		}
		if name.Valid && name.String != "" {
			names = append(names, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading original filenames: %w", err)
	}
	return names, nil
}
