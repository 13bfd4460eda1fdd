package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/cache"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
	"github.com/pable/go-fm-metrics/internal/storage"
)

func seed(t *testing.T) *storage.Memory {
	t.Helper()
	st := storage.NewMemory()
	st.AppendSquad(
		model.PlayerRecord{Season: "s1", Name: "Ana", Positions: []string{"ST"}},
		model.PlayerRecord{Season: "s1", Name: "Rui", Positions: []string{"ST"}},
	)
	st.AppendTransfers(model.TransferRecord{Season: "s1", PlayerName: "Ana", TransferType: model.TransferIn, TransferValue: "£2M"})
	st.AppendMatchStats(
		model.MatchStatRecord{PlayerName: "Ana", Season: "s1", Competition: "League", Opponent: "Alpha", Date: "2024-08-01", Scores: "2-0",
			Stats: model.StatLine{schema.MinutesPlayed: 90, schema.MatchRating: 8, schema.Goals: 2, schema.Shots: 4}},
		model.MatchStatRecord{PlayerName: "Rui", Season: "s1", Competition: "League", Opponent: "Alpha", Date: "2024-08-01", Scores: "2-0",
			Stats: model.StatLine{schema.MinutesPlayed: 45, schema.MatchRating: 6.5, schema.Goals: 0, schema.Shots: 1}},
	)
	return st
}

func newTestServer(t *testing.T) (*httptest.Server, *storage.Memory) {
	t.Helper()
	st := seed(t)
	srv := New(Config{
		Store:  st,
		Cache:  cache.NewMemory(0),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func getJSON(t *testing.T, ts *httptest.Server, path string, dst any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]any
	if code := getJSON(t, ts, "/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestPlayers(t *testing.T) {
	ts, _ := newTestServer(t)
	var table analytics.Table
	code := getJSON(t, ts, "/api/v1/players?scaling=per90&stats=Goals,Match%20Rating&sort=Goals", &table)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(table.Rows) != 2 || table.Rows[0].Player != "Ana" {
		t.Fatalf("rows = %+v", table.Rows)
	}
	if table.Rows[0].Values[0] != 2 {
		t.Errorf("Ana goals per 90 = %v, want 2", table.Rows[0].Values[0])
	}
	if table.Rows[1].Values[1] != 6.5 {
		t.Errorf("rating should not be scaled: %v", table.Rows[1].Values[1])
	}
}

func TestLeaderboard_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t)
	cases := []string{
		"/api/v1/leaderboard",
		"/api/v1/leaderboard?stat=Nonsense",
		"/api/v1/leaderboard?stat=Goals&scaling=weekly",
		"/api/v1/leaderboard?stat=Goals&limit=ten",
	}
	for _, path := range cases {
		if code := getJSON(t, ts, path, nil); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, code)
		}
	}
}

func TestLeaderboard_MissingColumn(t *testing.T) {
	ts, _ := newTestServer(t)
	var body errorResponse
	code := getJSON(t, ts, "/api/v1/leaderboard?stat=Saves", &body)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if body.Code != http.StatusBadRequest || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestScout_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	if code := getJSON(t, ts, "/api/v1/players/Nobody/scout?season=s1", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
	if code := getJSON(t, ts, "/api/v1/players/Ana/scout", nil); code != http.StatusBadRequest {
		t.Errorf("missing season: status = %d, want 400", code)
	}
}

func TestPlayerSeasons(t *testing.T) {
	ts, _ := newTestServer(t)
	var body struct {
		Player  string                   `json:"player"`
		Seasons []model.AggregatedRecord `json:"seasons"`
		Career  model.AggregatedRecord   `json:"career"`
	}
	if code := getJSON(t, ts, "/api/v1/players/ana/seasons", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Player != "Ana" || len(body.Seasons) != 1 || body.Career.GamesPlayed != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestTeam(t *testing.T) {
	ts, _ := newTestServer(t)
	var body struct {
		Summary model.TeamSummary `json:"summary"`
		Points  int               `json:"points"`
	}
	if code := getJSON(t, ts, "/api/v1/team?season=s1", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Summary.GamesPlayed != 1 || body.Summary.Wins != 1 || body.Points != 3 {
		t.Errorf("body = %+v", body)
	}
	if code := getJSON(t, ts, "/api/v1/team?season=s9", nil); code != http.StatusNotFound {
		t.Errorf("empty season: status = %d, want 404", code)
	}
}

func TestRadarAndScatter(t *testing.T) {
	ts, _ := newTestServer(t)
	q := url.Values{}
	q.Add("entity", "Ana (s1)")
	q.Add("entity", "Rui@s1")
	q.Set("stats", "Goals,Shots")
	q.Set("normalize", "true")
	var radar analytics.Radar
	if code := getJSON(t, ts, "/api/v1/radar?"+q.Encode(), &radar); code != http.StatusOK {
		t.Fatalf("radar status = %d", code)
	}
	if len(radar.Series) != 2 || radar.Series[0].Values[0] != 1 {
		t.Errorf("radar = %+v", radar)
	}

	var sc analytics.Scatter
	if code := getJSON(t, ts, "/api/v1/scatter?x=Goals&y=Shots", &sc); code != http.StatusOK {
		t.Fatalf("scatter status = %d", code)
	}
	if len(sc.Points) != 2 {
		t.Errorf("points = %+v", sc.Points)
	}
}

func TestPostMatches_InvalidatesTables(t *testing.T) {
	ts, st := newTestServer(t)
	var before analytics.Table
	getJSON(t, ts, "/api/v1/players?stats=Goals", &before)

	rows := []model.MatchStatRecord{{
		PlayerName: "Tiago", Season: "s1", Opponent: "Beta", Scores: "1-1",
		Stats: model.StatLine{schema.MinutesPlayed: 90, schema.Goals: 1},
	}}
	b, _ := json.Marshal(rows)
	resp, err := http.Post(ts.URL+"/api/v1/matches", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	rev, _ := st.Revision()

	var after analytics.Table
	getJSON(t, ts, "/api/v1/players?stats=Goals", &after)
	if after.Revision != rev || len(after.Rows) != len(before.Rows)+1 {
		t.Errorf("table not rebuilt: before %d rows, after %d rows (rev %d)", len(before.Rows), len(after.Rows), after.Revision)
	}
}

func TestPostMatches_RejectsUnknownStat(t *testing.T) {
	ts, _ := newTestServer(t)
	body := `[{"player_name":"Ana","season":"s1","stats":{"Vibes":3}}]`
	resp, err := http.Post(ts.URL+"/api/v1/matches", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTools(t *testing.T) {
	ts, _ := newTestServer(t)
	var body struct {
		Tools []toolInfo `json:"tools"`
	}
	getJSON(t, ts, "/api/v1/tools", &body)
	if len(body.Tools) != 5 {
		t.Errorf("tools = %+v", body.Tools)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&schema.MissingColumnError{Stat: "x"}, http.StatusBadRequest},
		{&aggregator.ConflictError{Player: "Ana"}, http.StatusConflict},
		{fmt.Errorf("wrap: %w", analytics.ErrPlayerNotFound), http.StatusNotFound},
		{analytics.ErrNoData, http.StatusNotFound},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.err); got != c.want {
			t.Errorf("statusFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
