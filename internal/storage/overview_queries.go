package storage

import (
	"database/sql"
	"fmt"
)

// Overview holds high-level counts for the summary command.
type Overview struct {
	SquadRows     int
	Players       int
	TransferRows  int
	MatchRows     int
	Matches       int // unique fixtures
	Seasons       int
	EarliestMatch string
	LatestMatch   string
	Revision      int64
}

// SeasonCount holds the fixture and player-row counts for one season and
// competition.
type SeasonCount struct {
	Season      string
	Competition string
	Matches     int
	Rows        int
}

// TopAppearance holds one player's appearance count across every season.
type TopAppearance struct {
	Name    string
	Games   int
	Seasons int
	Goals   float64
}

// Overview returns store-wide counts.
func (db *DB) Overview() (Overview, error) {
	var ov Overview
	var earliest, latest sql.NullString
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(1) FROM squad),
			(SELECT COUNT(DISTINCT LOWER(TRIM(name))) FROM squad),
			(SELECT COUNT(1) FROM transfers),
			(SELECT COUNT(1) FROM match_stats),
			(SELECT COUNT(1) FROM (SELECT DISTINCT season, competition, opponent, match_date, scores FROM match_stats)),
			(SELECT COUNT(DISTINCT season) FROM match_stats),
			(SELECT MIN(NULLIF(match_date, '')) FROM match_stats),
			(SELECT MAX(NULLIF(match_date, '')) FROM match_stats),
			(SELECT value FROM store_meta WHERE key = 'revision')`).
		Scan(&ov.SquadRows, &ov.Players, &ov.TransferRows, &ov.MatchRows, &ov.Matches,
			&ov.Seasons, &earliest, &latest, &ov.Revision)
	if err != nil {
		return ov, err
	}
	ov.EarliestMatch = earliest.String
	ov.LatestMatch = latest.String
	return ov, nil
}

// SeasonCounts returns fixture counts per season and competition, newest
// season first.
func (db *DB) SeasonCounts() ([]SeasonCount, error) {
	rows, err := db.conn.Query(`
		SELECT season, competition,
		       COUNT(DISTINCT opponent || '|' || match_date || '|' || scores),
		       COUNT(1)
		FROM match_stats
		GROUP BY season, competition
		ORDER BY season DESC, competition`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeasonCount
	for rows.Next() {
		var c SeasonCount
		if err := rows.Scan(&c.Season, &c.Competition, &c.Matches, &c.Rows); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TopAppearances returns the players with the most match rows.
func (db *DB) TopAppearances(limit int) ([]TopAppearance, error) {
	rows, err := db.conn.Query(`
		SELECT player_name, COUNT(1), COUNT(DISTINCT season), COALESCE(SUM(goals), 0)
		FROM match_stats
		GROUP BY player_name
		ORDER BY COUNT(1) DESC, player_name
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopAppearance
	for rows.Next() {
		var a TopAppearance
		if err := rows.Scan(&a.Name, &a.Games, &a.Seasons, &a.Goals); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified
// rows. NULLs render as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%g", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
