package merge

import (
	"path/filepath"
	"testing"

	"github.com/vkuzmin/chromesift/app/chromium"
	"github.com/vkuzmin/chromesift/app/history"
)

// newHistoryDB creates a History-shaped sqlite database and seeds its
// urls table.
func newHistoryDB(t *testing.T, records []history.VisitRecord) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "History")
	db, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := history.EnsureSchema(db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	for _, rec := range records {
		_, err := db.Exec(
			`INSERT INTO urls (url, visit_count, last_visit_time) VALUES (?, ?, ?)`,
			rec.URL, rec.VisitCount, chromium.WebkitFromTime(rec.LastVisit),
		)
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	return path
}
