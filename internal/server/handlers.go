package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/cache"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// maxLimit caps leaderboard sizes.
const maxLimit = 500

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// listParam collects a repeated or comma-separated query parameter.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return n, nil
}

func boolParam(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func statParam(r *http.Request, name string, required bool) (schema.Stat, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return "", badRequest("%s is required", name)
		}
		return "", nil
	}
	return schema.Parse(raw)
}

func parseFilter(r *http.Request) analytics.Filter {
	return analytics.Filter{
		Season:       r.URL.Query().Get("season"),
		Competitions: listParam(r, "competition"),
		Opponents:    listParam(r, "opponent"),
		Positions:    listParam(r, "position"),
		Players:      listParam(r, "player"),
	}
}

// parseQuery reads group_by, scaling, min_games and the filter parameters.
func parseQuery(r *http.Request) (analytics.Query, error) {
	q := analytics.Query{Filter: parseFilter(r)}
	var err error
	if v := r.URL.Query().Get("group_by"); v != "" {
		if q.GroupBy, err = aggregator.ParseGroupBy(v); err != nil {
			return q, badRequest("%v", err)
		}
	}
	if v := r.URL.Query().Get("scaling"); v != "" {
		if q.Scaling, err = aggregator.ParseScaling(v); err != nil {
			return q, badRequest("%v", err)
		}
	}
	if q.MinGames, err = intParam(r, "min_games", 0); err != nil {
		return q, err
	}
	return q, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	rev, err := s.cfg.Store.Revision()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "revision": rev})
}

func (s *Server) listSeasons(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"seasons":      eng.Seasons(),
		"competitions": eng.Competitions(r.URL.Query().Get("season")),
		"positions":    eng.Positions(),
		"unmatched":    eng.Unmatched(),
	})
}

func (s *Server) getSquad(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	season := r.URL.Query().Get("season")
	players := make([]model.PlayerRecord, 0)
	for _, p := range eng.Dataset().Squad {
		if season == "" || strings.EqualFold(season, analytics.AllSeasons) || p.Season == season {
			players = append(players, p)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"players": players, "count": len(players)})
}

func (s *Server) getTransfers(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	season := r.URL.Query().Get("season")
	rows := make([]model.TransferRecord, 0)
	for _, t := range eng.Dataset().Transfers {
		if season == "" || strings.EqualFold(season, analytics.AllSeasons) || t.Season == season {
			rows = append(rows, t)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"summary":   eng.Transfers(season),
		"transfers": rows,
	})
}

func (s *Server) postTransfers(w http.ResponseWriter, r *http.Request) {
	var in []model.TransferRecord
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.fail(w, badRequest("decode transfers: %v", err))
		return
	}
	for i, t := range in {
		if strings.TrimSpace(t.PlayerName) == "" || strings.TrimSpace(t.Season) == "" {
			s.fail(w, badRequest("transfer %d: player_name and season are required", i))
			return
		}
		tt, err := model.ParseTransferType(string(t.TransferType))
		if err != nil {
			s.fail(w, badRequest("transfer %d: %v", i, err))
			return
		}
		in[i].TransferType = tt
	}
	if err := s.cfg.Store.AppendTransfers(in...); err != nil {
		s.fail(w, fmt.Errorf("append transfers: %w", err))
		return
	}
	s.appended(w, r, len(in))
}

func (s *Server) postMatches(w http.ResponseWriter, r *http.Request) {
	var in []model.MatchStatRecord
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.fail(w, badRequest("decode match stats: %v", err))
		return
	}
	for i, m := range in {
		if strings.TrimSpace(m.PlayerName) == "" || strings.TrimSpace(m.Season) == "" {
			s.fail(w, badRequest("match row %d: player_name and season are required", i))
			return
		}
		for st := range m.Stats {
			if !schema.IsStored(st) {
				s.fail(w, badRequest("match row %d: unknown stat column %q", i, st))
				return
			}
		}
	}
	if err := s.cfg.Store.AppendMatchStats(in...); err != nil {
		s.fail(w, fmt.Errorf("append match stats: %w", err))
		return
	}
	s.appended(w, r, len(in))
}

// appended drops cached tables after a write and reports the new revision.
func (s *Server) appended(w http.ResponseWriter, r *http.Request, n int) {
	if err := s.cfg.Cache.Invalidate(r.Context(), cache.Key("players")); err != nil {
		s.log.Warn("cache invalidate failed", "err", err)
	}
	rev, err := s.cfg.Store.Revision()
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"appended": n, "revision": rev})
}

func (s *Server) getPlayers(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	stats, err := schema.ParseList(listParam(r, "stats"))
	if err != nil {
		s.fail(w, err)
		return
	}
	sortBy, err := statParam(r, "sort", false)
	if err != nil {
		s.fail(w, err)
		return
	}
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	t, err := eng.PlayerTable(r.Context(), q, stats)
	if err != nil {
		s.fail(w, err)
		return
	}
	if sortBy != "" {
		if t.Column(sortBy) < 0 {
			s.fail(w, badRequest("sort column %q is not in the table", sortBy))
			return
		}
		t.SortBy(sortBy, boolParam(r, "asc"))
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) getPlayerSeasons(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	name, err := eng.FindPlayer(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	recs, err := eng.PlayerSeasons(name, parseFilter(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	career, err := aggregator.Merge(recs, aggregator.ByPlayer, aggregator.Options{Strict: s.cfg.Strict})
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"player":  name,
		"seasons": recs,
		"career":  career[0],
	})
}

func (s *Server) getScout(w http.ResponseWriter, r *http.Request) {
	season := r.URL.Query().Get("season")
	if season == "" {
		s.fail(w, badRequest("season is required"))
		return
	}
	minMinutes, err := intParam(r, "min_minutes", 0)
	if err != nil {
		s.fail(w, err)
		return
	}
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	rep, err := eng.ScoutReport(analytics.ScoutRequest{
		Player:     chi.URLParam(r, "name"),
		Season:     season,
		Positions:  listParam(r, "position"),
		MinMinutes: float64(minMinutes),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) getTrend(w http.ResponseWriter, r *http.Request) {
	stat, err := statParam(r, "stat", true)
	if err != nil {
		s.fail(w, err)
		return
	}
	window, err := intParam(r, "window", 5)
	if err != nil {
		s.fail(w, err)
		return
	}
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	name, err := eng.FindPlayer(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	points, err := eng.Trend(name, stat, parseFilter(r), window)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"player": name, "stat": stat, "points": points})
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	stat, err := statParam(r, "stat", true)
	if err != nil {
		s.fail(w, err)
		return
	}
	limit, err := intParam(r, "limit", 10)
	if err != nil {
		s.fail(w, err)
		return
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	entries, err := eng.Leaderboard(analytics.LeaderboardRequest{
		Query:     q,
		Stat:      stat,
		Limit:     limit,
		Ascending: boolParam(r, "asc"),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"stat": stat, "scaling": q.Scaling.String(), "entries": entries})
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	sum, err := eng.Team(parseFilter(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"summary": sum,
		"win_pct": sum.WinPct(),
		"points":  sum.Points(),
	})
}

func (s *Server) getRadar(w http.ResponseWriter, r *http.Request) {
	var entities []analytics.Entity
	for _, raw := range r.URL.Query()["entity"] {
		en, err := analytics.ParseEntity(raw)
		if err != nil {
			s.fail(w, badRequest("%v", err))
			return
		}
		entities = append(entities, en)
	}
	stats, err := schema.ParseList(listParam(r, "stats"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if p := r.URL.Query().Get("preset"); p != "" {
		preset, err := schema.Preset(p)
		if err != nil {
			s.fail(w, badRequest("%v", err))
			return
		}
		stats = append(stats, preset...)
	}
	if len(entities) == 0 || len(stats) == 0 {
		s.fail(w, badRequest("radar needs at least one entity and stats or a preset"))
		return
	}
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	radar, err := eng.Radar(analytics.RadarRequest{
		Entities:  entities,
		Stats:     stats,
		Per90:     boolParam(r, "per90"),
		Normalize: boolParam(r, "normalize"),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, radar)
}

func (s *Server) getScatter(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	x, err := statParam(r, "x", true)
	if err != nil {
		s.fail(w, err)
		return
	}
	y, err := statParam(r, "y", true)
	if err != nil {
		s.fail(w, err)
		return
	}
	z, err := statParam(r, "z", false)
	if err != nil {
		s.fail(w, err)
		return
	}
	eng, err := s.Engine()
	if err != nil {
		s.fail(w, err)
		return
	}
	sc, err := eng.Scatter(analytics.ScatterRequest{Query: q, X: x, Y: y, Z: z})
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sc)
}
