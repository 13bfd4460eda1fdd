package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

const squadColumns = `season, name, age, kit_number, position_1, position_2, position_3, position_4,
	nationality, height, weight, transfer_value, wage, contract_length,
	role, strong_foot, overall_start, overall_end`

const transferColumns = `id, season, player_name, transfer_date, transfer_type, transfer_value`

var matchMetaColumns = []string{"player_name", "season", "competition", "opponent", "scores", "match_date"}

// matchColumns lists every match_stats column in insert/select order.
func matchColumns() []string {
	cols := append([]string(nil), matchMetaColumns...)
	for _, c := range schema.MatchStatColumns {
		cols = append(cols, c.Key)
	}
	return append(cols, "man_of_the_match", "started")
}

// Squad returns every roster row in insertion order.
func (db *DB) Squad() ([]model.PlayerRecord, error) {
	rows, err := db.conn.Query(`SELECT ` + squadColumns + ` FROM squad ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerRecord
	for rows.Next() {
		var p model.PlayerRecord
		var pos [4]string
		var role, foot string
		if err := rows.Scan(&p.Season, &p.Name, &p.Age, &p.KitNumber,
			&pos[0], &pos[1], &pos[2], &pos[3],
			&p.Nationality, &p.Height, &p.Weight, &p.TransferValue, &p.Wage, &p.ContractLength,
			&role, &foot, &p.OverallStart, &p.OverallEnd); err != nil {
			return nil, err
		}
		p.Positions = model.CleanPositions(pos[:])
		p.Role = model.Role(role)
		p.StrongFoot = model.Foot(foot)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Transfers returns the transfer log in insertion order.
func (db *DB) Transfers() ([]model.TransferRecord, error) {
	rows, err := db.conn.Query(`SELECT ` + transferColumns + ` FROM transfers ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TransferRecord
	for rows.Next() {
		var t model.TransferRecord
		var typ string
		if err := rows.Scan(&t.ID, &t.Season, &t.PlayerName, &t.TransferDate, &typ, &t.TransferValue); err != nil {
			return nil, err
		}
		t.TransferType = model.TransferType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

// MatchStats returns every player-match row in insertion order. NULL stat
// columns are left out of the row's StatLine.
func (db *DB) MatchStats() ([]model.MatchStatRecord, error) {
	rows, err := db.conn.Query(`SELECT ` + strings.Join(matchColumns(), ", ") + ` FROM match_stats ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vals := make([]sql.NullFloat64, len(schema.MatchStatColumns))
	var out []model.MatchStatRecord
	for rows.Next() {
		var m model.MatchStatRecord
		var motm, started int
		dest := []any{&m.PlayerName, &m.Season, &m.Competition, &m.Opponent, &m.Scores, &m.Date}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		dest = append(dest, &motm, &started)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		m.Stats = make(model.StatLine, len(vals))
		for i, c := range schema.MatchStatColumns {
			if vals[i].Valid {
				m.Stats[c.Stat] = vals[i].Float64
			}
		}
		m.ManOfTheMatch = motm != 0
		m.Started = started != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

// WriteSquad replaces the roster.
func (db *DB) WriteSquad(players []model.PlayerRecord) error {
	return db.write("squad", true, func(tx *sql.Tx) error { return insertSquad(tx, players) })
}

// AppendSquad adds roster rows.
func (db *DB) AppendSquad(players ...model.PlayerRecord) error {
	return db.write("squad", false, func(tx *sql.Tx) error { return insertSquad(tx, players) })
}

// WriteTransfers replaces the transfer log.
func (db *DB) WriteTransfers(transfers []model.TransferRecord) error {
	return db.write("transfers", true, func(tx *sql.Tx) error { return insertTransfers(tx, transfers) })
}

// AppendTransfers adds log entries. Entries without an ID get a new UUID.
func (db *DB) AppendTransfers(transfers ...model.TransferRecord) error {
	return db.write("transfers", false, func(tx *sql.Tx) error { return insertTransfers(tx, transfers) })
}

// WriteMatchStats replaces every player-match row.
func (db *DB) WriteMatchStats(stats []model.MatchStatRecord) error {
	return db.write("match_stats", true, func(tx *sql.Tx) error { return insertMatchStats(tx, stats) })
}

// AppendMatchStats adds player-match rows.
func (db *DB) AppendMatchStats(stats ...model.MatchStatRecord) error {
	return db.write("match_stats", false, func(tx *sql.Tx) error { return insertMatchStats(tx, stats) })
}

// write runs fn in a transaction, optionally clearing table first, and bumps
// the revision on success.
func (db *DB) write(table string, replace bool, fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func insertSquad(tx *sql.Tx, players []model.PlayerRecord) error {
	stmt, err := tx.Prepare(`INSERT INTO squad(` + squadColumns + `) VALUES (` + placeholders(18) + `)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		var pos [4]string
		copy(pos[:], p.Positions)
		_, err = stmt.Exec(
			p.Season, p.Name, p.Age, p.KitNumber,
			pos[0], pos[1], pos[2], pos[3],
			p.Nationality, p.Height, p.Weight, p.TransferValue, p.Wage, p.ContractLength,
			string(p.Role), string(p.StrongFoot), p.OverallStart, p.OverallEnd,
		)
		if err != nil {
			return fmt.Errorf("insert squad row for %s (%s): %w", p.Name, p.Season, err)
		}
	}
	return nil
}

func insertTransfers(tx *sql.Tx, transfers []model.TransferRecord) error {
	stmt, err := tx.Prepare(`INSERT INTO transfers(` + transferColumns + `) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range withIDs(transfers) {
		_, err = stmt.Exec(t.ID, t.Season, t.PlayerName, t.TransferDate, string(t.TransferType), t.TransferValue)
		if err != nil {
			return fmt.Errorf("insert transfer for %s: %w", t.PlayerName, err)
		}
	}
	return nil
}

func insertMatchStats(tx *sql.Tx, stats []model.MatchStatRecord) error {
	cols := matchColumns()
	stmt, err := tx.Prepare(`INSERT INTO match_stats(` + strings.Join(cols, ", ") + `) VALUES (` + placeholders(len(cols)) + `)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range stats {
		args := []any{m.PlayerName, m.Season, m.Competition, m.Opponent, m.Scores, m.Date}
		for _, c := range schema.MatchStatColumns {
			if v, ok := m.Stats[c.Stat]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		args = append(args, boolInt(m.ManOfTheMatch), boolInt(m.Started))
		if _, err = stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert match_stats for %s vs %s: %w", m.PlayerName, m.Opponent, err)
		}
	}
	return nil
}

// withIDs returns transfers with a UUID assigned to every entry lacking one.
func withIDs(transfers []model.TransferRecord) []model.TransferRecord {
	out := make([]model.TransferRecord, len(transfers))
	for i, t := range transfers {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		out[i] = t
	}
	return out
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
