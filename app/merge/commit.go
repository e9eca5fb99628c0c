package merge

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vkuzmin/chromesift/app/chromium"
	"github.com/vkuzmin/chromesift/app/history"
)

// ErrMergeAborted reports a commit that could not be applied. The target
// database is left exactly as it was: the commit either applies the full
// computed diff or nothing.
var ErrMergeAborted = errors.New("merge aborted")

// Commit applies a computed merge to the target History database inside
// a single transaction. When source is non-nil its raw visit rows are
// copied too, deduplicated on (url, visit_time); from_visit chains are
// not carried over, Chrome rebuilds them on its own.
//
// The caller owns writer exclusivity: the target must not be open in a
// running browser.
func Commit(target *sql.DB, source *sql.DB, res Result) error {
	tx, err := target.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMergeAborted, err)
	}
	defer tx.Rollback()

	if err := applyChanges(tx, res); err != nil {
		return fmt.Errorf("%w: %v", ErrMergeAborted, err)
	}
	if source != nil {
		if err := copyVisits(tx, source); err != nil {
			return fmt.Errorf("%w: %v", ErrMergeAborted, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrMergeAborted, err)
	}
	return nil
}

func applyChanges(tx *sql.Tx, res Result) error {
	for _, ch := range res.Changes {
		lastVisit := chromium.WebkitFromTime(ch.Record.LastVisit)
		if ch.New {
			_, err := tx.Exec(`
				INSERT INTO urls (url, visit_count, last_visit_time)
				VALUES (?, ?, ?)
			`, ch.Record.URL, ch.Record.VisitCount, lastVisit)
			if err != nil {
				return fmt.Errorf("failed to insert %s: %v", ch.Record.URL, err)
			}
			continue
		}
		// The database keeps URLs as Chrome recorded them, so updates
		// must match the stored spellings, not the normalized form.
		raws := ch.RawURLs
		if len(raws) == 0 {
			raws = []string{ch.Record.URL}
		}
		result, err := tx.Exec(`
			UPDATE urls
			SET visit_count = ?, last_visit_time = ?
			WHERE url = ?
		`, ch.Record.VisitCount, lastVisit, raws[0])
		if err != nil {
			return fmt.Errorf("failed to update %s: %v", raws[0], err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			// The computed merge saw a record the target no longer has:
			// the target changed under us, so nothing may be applied.
			return fmt.Errorf("target changed since merge was computed: %s missing", raws[0])
		}
		// The merged totals live on the first spelling; rows that
		// collapsed into the same record fold into it, keeping their
		// visit rows.
		for _, dup := range raws[1:] {
			if err := foldDuplicate(tx, raws[0], dup); err != nil {
				return err
			}
		}
	}
	return nil
}

func foldDuplicate(tx *sql.Tx, primary, dup string) error {
	var primaryID, dupID int64
	if err := tx.QueryRow(`SELECT id FROM urls WHERE url = ?`, primary).Scan(&primaryID); err != nil {
		return fmt.Errorf("failed to resolve %s: %v", primary, err)
	}
	if err := tx.QueryRow(`SELECT id FROM urls WHERE url = ?`, dup).Scan(&dupID); err != nil {
		return fmt.Errorf("failed to resolve %s: %v", dup, err)
	}
	if _, err := tx.Exec(`UPDATE visits SET url = ? WHERE url = ?`, primaryID, dupID); err != nil {
		return fmt.Errorf("failed to move visits off %s: %v", dup, err)
	}
	if _, err := tx.Exec(`DELETE FROM urls WHERE id = ?`, dupID); err != nil {
		return fmt.Errorf("failed to drop duplicate %s: %v", dup, err)
	}
	return nil
}

// copyVisits moves raw visit rows from the source database into the
// target transaction, mapping source url ids onto target url ids.
// URLs match on their normalized form, since the two databases may spell
// the same page differently.
func copyVisits(tx *sql.Tx, source *sql.DB) error {
	targetIDs := make(map[string]int64)
	rows, err := tx.Query(`SELECT id, url FROM urls`)
	if err != nil {
		return fmt.Errorf("failed to read target urls: %v", err)
	}
	for rows.Next() {
		var id int64
		var rawURL string
		if err := rows.Scan(&id, &rawURL); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan target url: %v", err)
		}
		targetIDs[history.Normalize(rawURL)] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read target urls: %v", err)
	}

	existing := make(map[[2]int64]bool)
	rows, err = tx.Query(`SELECT url, visit_time FROM visits`)
	if err != nil {
		return fmt.Errorf("failed to read target visits: %v", err)
	}
	for rows.Next() {
		var urlID, visitTime int64
		if err := rows.Scan(&urlID, &visitTime); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan target visit: %v", err)
		}
		existing[[2]int64{urlID, visitTime}] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read target visits: %v", err)
	}

	srcRows, err := source.Query(`
		SELECT u.url, v.visit_time, v.transition, v.visit_duration
		FROM visits v
		JOIN urls u ON u.id = v.url
	`)
	if err != nil {
		return fmt.Errorf("failed to read source visits: %v", err)
	}
	defer srcRows.Close()

	for srcRows.Next() {
		var rawURL string
		var visitTime, transition, duration int64
		if err := srcRows.Scan(&rawURL, &visitTime, &transition, &duration); err != nil {
			return fmt.Errorf("failed to scan source visit: %v", err)
		}
		urlID, ok := targetIDs[history.Normalize(rawURL)]
		if !ok {
			continue
		}
		key := [2]int64{urlID, visitTime}
		if existing[key] {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO visits (url, visit_time, from_visit, transition, segment_id, visit_duration)
			VALUES (?, ?, 0, ?, 0, ?)
		`, urlID, visitTime, transition, duration)
		if err != nil {
			return fmt.Errorf("failed to insert visit: %v", err)
		}
		existing[key] = true
	}
	return srcRows.Err()
}
