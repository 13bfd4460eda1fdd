package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/cache"
	"github.com/pable/go-fm-metrics/internal/rollup"
	"github.com/pable/go-fm-metrics/internal/schema"
	"github.com/pable/go-fm-metrics/internal/storage"
)

func openStore() (*storage.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// openCache returns a Redis cache when --redis-url is set, otherwise a no-op.
func openCache(ctx context.Context) (cache.Cache, func(), error) {
	if redisURL == "" {
		return cache.Nop{}, func() {}, nil
	}
	rc, err := cache.DialRedis(ctx, redisURL, cache.DefaultTTL)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { rc.Close() }, nil
}

// session is an open store plus an engine over its current contents.
type session struct {
	db    *storage.DB
	eng   *analytics.Engine
	close func()
}

func openSession(ctx context.Context) (*session, error) {
	db, err := openStore()
	if err != nil {
		return nil, err
	}
	c, closeCache, err := openCache(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	data, err := analytics.Load(db)
	if err != nil {
		closeCache()
		db.Close()
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	eng := analytics.New(data, analytics.Options{
		Strict: strictMeta,
		Parser: rollup.ParserByName(scoreParser),
		Cache:  c,
	})
	return &session{
		db:  db,
		eng: eng,
		close: func() {
			closeCache()
			db.Close()
		},
	}, nil
}

// queryFlags are the filter and view flags shared by the table commands.
type queryFlags struct {
	season       string
	competitions []string
	opponents    []string
	positions    []string
	bySeason     bool
	scaling      string
	minGames     int
}

func (q *queryFlags) register(cmd *cobra.Command, withView bool) {
	f := cmd.Flags()
	f.StringVar(&q.season, "season", "", "season to include (default all)")
	f.StringSliceVar(&q.competitions, "competition", nil, "competitions to include")
	f.StringSliceVar(&q.opponents, "opponent", nil, "opponents to include")
	f.StringSliceVar(&q.positions, "position", nil, "primary positions to include (e.g. ST,CAM)")
	if withView {
		f.BoolVar(&q.bySeason, "by-season", false, "one row per player and season")
		f.StringVar(&q.scaling, "scaling", "raw", "raw, per90 or pergame")
		f.IntVar(&q.minGames, "min-games", 0, "drop groups with fewer appearances")
	}
}

func (q *queryFlags) filter() analytics.Filter {
	return analytics.Filter{
		Season:       q.season,
		Competitions: q.competitions,
		Opponents:    q.opponents,
		Positions:    q.positions,
	}
}

func (q *queryFlags) query() (analytics.Query, error) {
	scaling, err := aggregator.ParseScaling(q.scaling)
	if err != nil {
		return analytics.Query{}, err
	}
	out := analytics.Query{Filter: q.filter(), Scaling: scaling, MinGames: q.minGames}
	if q.bySeason {
		out.GroupBy = aggregator.ByPlayerSeason
	}
	return out, nil
}

func parseStats(names []string) ([]schema.Stat, error) {
	stats, err := schema.ParseList(names)
	if err != nil {
		return nil, fmt.Errorf("%w (see 'fmmetrics sql' for column names)", err)
	}
	return stats, nil
}
