package storage

import (
	"fmt"
	"time"
)

// CaptureCount is how many rewards of one template were collected in a game.
type CaptureCount struct {
	GameID     string
	TemplateID string
	Tier       string
	Count      int
	LastAt     time.Time
}

// AddCaptures adds counts to the tally of gameID. Entries with a
// non-positive count are skipped.
func (s *Store) AddCaptures(gameID string, counts []CaptureCount) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot add captures: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO captures (game_id, template_id, tier, count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(game_id, template_id) DO UPDATE SET
			count = count + excluded.count,
			tier = excluded.tier,
			last_at = CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot add captures: %w", err)
	}
	defer stmt.Close()

	for _, c := range counts {
		if c.Count <= 0 || c.TemplateID == "" {
			continue
		}
		if _, err := stmt.Exec(gameID, c.TemplateID, c.Tier, c.Count); err != nil {
			return fmt.Errorf("storage: cannot add capture %s: %w", c.TemplateID, err)
		}
	}
	return tx.Commit()
}

// Captures returns the tally of gameID, most collected first.
func (s *Store) Captures(gameID string) ([]CaptureCount, error) {
	rows, err := s.db.Query(
		`SELECT game_id, template_id, tier, count, last_at
		 FROM captures
		 WHERE game_id = ?
		 ORDER BY count DESC, template_id ASC`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query captures: %w", err)
	}
	defer rows.Close()

	var out []CaptureCount
	for rows.Next() {
		var c CaptureCount
		var lastAt any
		if err := rows.Scan(&c.GameID, &c.TemplateID, &c.Tier, &c.Count, &lastAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		c.LastAt = parseTime(lastAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}
