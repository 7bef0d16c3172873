package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/tapfield/internal/multiplayer"
)

// PlayerScore is one player's result in a shared room.
type PlayerScore struct {
	Player string
	Score  int
}

// RoomRecord is a stored shared-field round.
type RoomRecord struct {
	ID           int64
	RoomID       string
	Code         string
	GameID       string
	EndReason    string
	DurationSecs int
	Players      []PlayerScore // best first
	CreatedAt    time.Time
}

// SaveRoomResult implements multiplayer.ResultSaver.
// This adapter lets the coordinator persist rooms without a storage dependency.
func (s *Store) SaveRoomResult(r multiplayer.RoomResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot save room: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO rooms (room_id, code, game_id, end_reason, duration_secs)
		 VALUES (?, ?, ?, ?, ?)`,
		r.RoomID, r.Code, r.GameID, r.EndReason, r.DurationSecs,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save room: %w", err)
	}
	for _, p := range r.Players {
		_, err := tx.Exec(
			"INSERT INTO room_players (room_id, player, score) VALUES (?, ?, ?)",
			r.RoomID, p.Name, p.Score,
		)
		if err != nil {
			return fmt.Errorf("storage: cannot save room player %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// Ensure Store implements ResultSaver
var _ multiplayer.ResultSaver = (*Store)(nil)

// RoomByID retrieves a room by its room ID. Returns nil if there is none.
func (s *Store) RoomByID(roomID string) (*RoomRecord, error) {
	var r RoomRecord
	var createdAt any
	err := s.db.QueryRow(
		`SELECT id, room_id, code, game_id, end_reason, duration_secs, created_at
		 FROM rooms
		 WHERE room_id = ?`,
		roomID,
	).Scan(&r.ID, &r.RoomID, &r.Code, &r.GameID, &r.EndReason, &r.DurationSecs, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query room: %w", err)
	}
	r.CreatedAt = parseTime(createdAt)

	if r.Players, err = s.roomPlayers(r.RoomID); err != nil {
		return nil, err
	}
	return &r, nil
}

// RecentRooms retrieves the most recent shared rounds, newest first.
func (s *Store) RecentRooms(limit int) ([]RoomRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, room_id, code, game_id, end_reason, duration_secs, created_at
		 FROM rooms
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rooms: %w", err)
	}

	var out []RoomRecord
	for rows.Next() {
		var r RoomRecord
		var createdAt any
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Code, &r.GameID, &r.EndReason, &r.DurationSecs, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		out = append(out, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	// players are loaded after the rows are closed: the pool has one connection
	for i := range out {
		if out[i].Players, err = s.roomPlayers(out[i].RoomID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) roomPlayers(roomID string) ([]PlayerScore, error) {
	rows, err := s.db.Query(
		`SELECT player, score FROM room_players
		 WHERE room_id = ?
		 ORDER BY score DESC, player ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query room players: %w", err)
	}
	defer rows.Close()

	var out []PlayerScore
	for rows.Next() {
		var p PlayerScore
		if err := rows.Scan(&p.Player, &p.Score); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}
