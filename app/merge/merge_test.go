package merge

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vkuzmin/chromesift/app/history"
)

var (
	t1 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

func TestCompute_IntoEmptyTargetCopiesVerbatim(t *testing.T) {
	source := history.NewStore([]history.VisitRecord{
		{URL: "https://a.com/", VisitCount: 5, LastVisit: t1},
		{URL: "https://b.com/", VisitCount: 3},
	})
	target := history.NewStore(nil)

	res := Compute(source, target)

	if res.Diff.Inserted != 2 || res.Diff.Updated != 0 {
		t.Errorf("diff = %+v, want 2 inserted / 0 updated", res.Diff)
	}
	if res.Diff.VisitDelta != 8 {
		t.Errorf("VisitDelta = %d, want 8", res.Diff.VisitDelta)
	}
	for _, ch := range res.Changes {
		if !ch.New {
			t.Errorf("change for %s should be an insert", ch.Record.URL)
		}
	}

	// Merging A into empty B yields B == A.
	byURL := make(map[string]history.VisitRecord)
	for _, ch := range res.Changes {
		byURL[ch.Record.URL] = ch.Record
	}
	if rec := byURL["https://a.com/"]; rec.VisitCount != 5 || !rec.LastVisit.Equal(t1) {
		t.Errorf("a.com = %+v, want verbatim copy", rec)
	}
}

func TestCompute_SumsCountsAndKeepsLatestVisit(t *testing.T) {
	source := history.NewStore([]history.VisitRecord{
		{URL: "https://x.com/", VisitCount: 5, LastVisit: t1},
	})
	target := history.NewStore([]history.VisitRecord{
		{URL: "https://x.com/", VisitCount: 3, LastVisit: t2},
	})

	res := Compute(source, target)

	if res.Diff.Inserted != 0 || res.Diff.Updated != 1 {
		t.Fatalf("diff = %+v, want 0 inserted / 1 updated", res.Diff)
	}
	merged := res.Changes[0].Record
	if merged.VisitCount != 8 {
		t.Errorf("VisitCount = %d, want 8", merged.VisitCount)
	}
	if !merged.LastVisit.Equal(t2) {
		t.Errorf("LastVisit = %v, want the later %v", merged.LastVisit, t2)
	}
}

func TestCompute_AbsentLastVisitLoses(t *testing.T) {
	source := history.NewStore([]history.VisitRecord{
		{URL: "https://x.com/", VisitCount: 1},
	})
	target := history.NewStore([]history.VisitRecord{
		{URL: "https://x.com/", VisitCount: 1, LastVisit: t1},
	})

	res := Compute(source, target)
	if !res.Changes[0].Record.LastVisit.Equal(t1) {
		t.Errorf("absent source time should lose to %v, got %v", t1, res.Changes[0].Record.LastVisit)
	}
}

// Re-merging the same source doubles the source-derived counts. This is
// the documented additive behavior.
func TestCompute_RemergeDoubles(t *testing.T) {
	source := history.NewStore([]history.VisitRecord{
		{URL: "https://a.com/", VisitCount: 5, LastVisit: t1},
	})
	target := history.NewStore(nil)

	first := Compute(source, target)
	afterFirst := history.NewStore(changedRecords(first))

	second := Compute(source, afterFirst)
	if second.Diff.Updated != 1 || second.Diff.Inserted != 0 {
		t.Fatalf("second diff = %+v", second.Diff)
	}
	if got := second.Changes[0].Record.VisitCount; got != 10 {
		t.Errorf("re-merged count = %d, want doubled 10", got)
	}
}

func changedRecords(res Result) []history.VisitRecord {
	out := make([]history.VisitRecord, 0, len(res.Changes))
	for _, ch := range res.Changes {
		out = append(out, ch.Record)
	}
	return out
}

func TestCommit_AppliesInsertsAndUpdates(t *testing.T) {
	targetPath := newHistoryDB(t, []history.VisitRecord{
		{URL: "https://x.com/", VisitCount: 3, LastVisit: t2},
	})
	sourceStore := history.NewStore([]history.VisitRecord{
		{URL: "https://x.com/", VisitCount: 5, LastVisit: t1},
		{URL: "https://new.com/", VisitCount: 2, LastVisit: t1},
	})

	targetStore, err := history.Load(targetPath)
	if err != nil {
		t.Fatalf("loading target failed: %v", err)
	}
	res := Compute(sourceStore, targetStore)

	db, err := history.Open(targetPath)
	if err != nil {
		t.Fatalf("opening target failed: %v", err)
	}
	defer db.Close()

	if err := Commit(db, nil, res); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	after, err := history.LoadDB(db)
	if err != nil {
		t.Fatalf("reloading target failed: %v", err)
	}
	if after.Len() != 2 {
		t.Fatalf("target has %d urls, want 2", after.Len())
	}
	x, _ := after.Lookup("https://x.com/")
	if x.VisitCount != 8 || !x.LastVisit.Equal(t2) {
		t.Errorf("x.com after commit = %+v", x)
	}
	n, ok := after.Lookup("https://new.com/")
	if !ok || n.VisitCount != 2 {
		t.Errorf("new.com after commit = %+v (ok=%v)", n, ok)
	}
}

// The urls table keeps URLs exactly as Chrome recorded them, so an
// update for a record keyed on the normalized form must still hit rows
// whose stored spelling differs (fragment, uppercase host).
func TestCommit_MatchesNonCanonicalTargetURL(t *testing.T) {
	targetPath := newHistoryDB(t, []history.VisitRecord{
		{URL: "https://x.com/a#frag", VisitCount: 3, LastVisit: t2},
	})
	sourceStore := history.NewStore([]history.VisitRecord{
		{URL: "https://x.com/a", VisitCount: 5, LastVisit: t1},
	})

	targetStore, err := history.Load(targetPath)
	if err != nil {
		t.Fatalf("loading target failed: %v", err)
	}
	res := Compute(sourceStore, targetStore)
	if res.Diff.Updated != 1 || res.Diff.Inserted != 0 {
		t.Fatalf("diff = %+v, want 0 inserted / 1 updated", res.Diff)
	}

	db, err := history.Open(targetPath)
	if err != nil {
		t.Fatalf("opening target failed: %v", err)
	}
	defer db.Close()

	if err := Commit(db, nil, res); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	after, err := history.LoadDB(db)
	if err != nil {
		t.Fatalf("reloading target failed: %v", err)
	}
	x, ok := after.Lookup("https://x.com/a")
	if !ok || x.VisitCount != 8 {
		t.Errorf("x.com/a after commit = %+v (ok=%v), want count 8", x, ok)
	}

	// The stored spelling is preserved; the row was updated in place.
	var stored int
	err = db.QueryRow(
		`SELECT visit_count FROM urls WHERE url = ?`, "https://x.com/a#frag",
	).Scan(&stored)
	if err != nil || stored != 8 {
		t.Errorf("stored row = %d (err=%v), want spelling kept with count 8", stored, err)
	}
}

// Two target rows that normalize to the same URL collapse into one
// record on load; committing a merge of that record folds them into a
// single row carrying the merged total.
func TestCommit_FoldsDuplicateTargetRows(t *testing.T) {
	targetPath := newHistoryDB(t, []history.VisitRecord{
		{URL: "https://x.com/a", VisitCount: 2, LastVisit: t1},
		{URL: "https://x.com/a#frag", VisitCount: 3, LastVisit: t2},
	})
	sourceStore := history.NewStore([]history.VisitRecord{
		{URL: "https://x.com/a", VisitCount: 4, LastVisit: t1},
	})

	targetStore, err := history.Load(targetPath)
	if err != nil {
		t.Fatalf("loading target failed: %v", err)
	}
	res := Compute(sourceStore, targetStore)
	if got := res.Changes[0].Record.VisitCount; got != 9 {
		t.Fatalf("merged count = %d, want 2+3+4=9", got)
	}

	db, err := history.Open(targetPath)
	if err != nil {
		t.Fatalf("opening target failed: %v", err)
	}
	defer db.Close()

	if err := Commit(db, nil, res); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	var rowCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM urls`).Scan(&rowCount); err != nil {
		t.Fatalf("counting rows failed: %v", err)
	}
	if rowCount != 1 {
		t.Errorf("target has %d url rows after commit, want duplicates folded to 1", rowCount)
	}

	after, err := history.LoadDB(db)
	if err != nil {
		t.Fatalf("reloading target failed: %v", err)
	}
	x, _ := after.Lookup("https://x.com/a")
	if x.VisitCount != 9 {
		t.Errorf("x.com/a after commit = %+v, want count 9", x)
	}
}

func TestCommit_CopiesVisitsAcrossSpellings(t *testing.T) {
	sourcePath := newHistoryDB(t, []history.VisitRecord{
		{URL: "https://x.com/a#frag", VisitCount: 1, LastVisit: t1},
	})
	targetPath := newHistoryDB(t, []history.VisitRecord{
		{URL: "https://x.com/a", VisitCount: 2, LastVisit: t2},
	})

	sourceDB, err := history.Open(sourcePath)
	if err != nil {
		t.Fatalf("opening source failed: %v", err)
	}
	defer sourceDB.Close()
	addVisit(t, sourceDB, "https://x.com/a#frag", 13370000000000000)

	sourceStore, err := history.LoadDB(sourceDB)
	if err != nil {
		t.Fatalf("loading source failed: %v", err)
	}
	targetStore, err := history.Load(targetPath)
	if err != nil {
		t.Fatalf("loading target failed: %v", err)
	}
	res := Compute(sourceStore, targetStore)

	targetDB, err := history.Open(targetPath)
	if err != nil {
		t.Fatalf("opening target failed: %v", err)
	}
	defer targetDB.Close()

	if err := Commit(targetDB, sourceDB, res); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// The source spelling differs from the target's stored URL, but the
	// visit row still lands on the matching target row.
	var visitCount int
	err = targetDB.QueryRow(`
		SELECT COUNT(*) FROM visits v
		JOIN urls u ON u.id = v.url
		WHERE u.url = ?
	`, "https://x.com/a").Scan(&visitCount)
	if err != nil {
		t.Fatalf("counting copied visits failed: %v", err)
	}
	if visitCount != 1 {
		t.Errorf("copied %d visits onto the target row, want 1", visitCount)
	}
}

func addVisit(t *testing.T, db *sql.DB, rawURL string, visitTime int64) {
	t.Helper()
	var urlID int64
	if err := db.QueryRow(`SELECT id FROM urls WHERE url = ?`, rawURL).Scan(&urlID); err != nil {
		t.Fatalf("resolving %s failed: %v", rawURL, err)
	}
	_, err := db.Exec(`
		INSERT INTO visits (url, visit_time, from_visit, transition, segment_id, visit_duration)
		VALUES (?, ?, 0, 0, 0, 0)
	`, urlID, visitTime)
	if err != nil {
		t.Fatalf("inserting visit failed: %v", err)
	}
}

func TestCommit_AllOrNothing(t *testing.T) {
	targetPath := newHistoryDB(t, []history.VisitRecord{
		{URL: "https://x.com/", VisitCount: 3, LastVisit: t2},
	})

	// A result referencing a URL the target does not have: the update
	// affects zero rows, so the whole commit must roll back, including
	// the insert that preceded it.
	res := Result{Changes: []Change{
		{Record: history.VisitRecord{URL: "https://new.com/", VisitCount: 1}, New: true},
		{Record: history.VisitRecord{URL: "https://vanished.com/", VisitCount: 9}, New: false},
	}}

	db, err := history.Open(targetPath)
	if err != nil {
		t.Fatalf("opening target failed: %v", err)
	}
	defer db.Close()

	err = Commit(db, nil, res)
	if err == nil {
		t.Fatal("expected Commit to fail")
	}
	if !errors.Is(err, ErrMergeAborted) {
		t.Errorf("expected ErrMergeAborted, got %v", err)
	}

	after, err := history.LoadDB(db)
	if err != nil {
		t.Fatalf("reloading target failed: %v", err)
	}
	if after.Len() != 1 {
		t.Errorf("target has %d urls after failed commit, want untouched 1", after.Len())
	}
	if _, ok := after.Lookup("https://new.com/"); ok {
		t.Error("partial insert survived a failed commit")
	}
}
