package history

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vkuzmin/chromesift/app/chromium"
)

// ErrMalformedInput reports a History database whose structure could not
// be read. The run aborts; partial results are never returned.
var ErrMalformedInput = errors.New("malformed history database")

// Open opens a History database snapshot read-write. The caller is
// responsible for handing in a private copy (see Snapshot); the live
// profile database must never be opened directly while Chrome runs.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

// Load reads the urls table of a History database snapshot into a Store.
func Load(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return LoadDB(db)
}

// LoadDB reads visit records from an already-open History database.
func LoadDB(db *sql.DB) (*Store, error) {
	rows, err := db.Query(`
		SELECT url, visit_count, last_visit_time
		FROM urls
		WHERE visit_count > 0
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer rows.Close()

	var records []VisitRecord
	for rows.Next() {
		var rawURL string
		var visitCount int
		var lastVisit sql.NullInt64
		if err := rows.Scan(&rawURL, &visitCount, &lastVisit); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		records = append(records, VisitRecord{
			URL:        rawURL,
			VisitCount: visitCount,
			LastVisit:  chromium.TimeFromWebkit(lastVisit.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	return NewStore(records), nil
}

// Snapshot copies a History database to a private temporary file so the
// live profile can stay open in the browser without lock contention.
// The caller removes the returned path when done.
func Snapshot(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open history file: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "chromesift-history-*.db")
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to copy history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return tmp.Name(), nil
}

// Replace atomically swaps the file at target with the file at src.
// The rename goes through a sibling of target so it stays on one
// filesystem. On any failure target is left untouched.
func Replace(target, src string) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".chromesift-replace-*")
	if err != nil {
		return fmt.Errorf("failed to stage replacement: %w", err)
	}
	tmpName := tmp.Name()

	in, err := os.Open(src)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to open replacement source: %w", err)
	}
	_, copyErr := io.Copy(tmp, in)
	in.Close()
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to stage replacement: %w", copyErr)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}
