package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/d60-Lab/yatube/internal/pagecache"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/server"
)

func newBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure read paths against the configured database",
	}
	cmd.AddCommand(newBenchCacheCommand(), newBenchFeedCommand())
	return cmd
}

// 首页请求按页码偏斜分布，统计命中率与延迟
func newBenchCacheCommand() *cobra.Command {
	var requests, pages int
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Replay index page requests through the router and report cache hit rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			store, err := server.NewStorage(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			cache, closeCache, err := server.NewPageCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeCache(ctx) }()
			if err := cache.Clear(ctx); err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			engine, err := server.NewRouter(server.Deps{Config: cfg, DB: db, Storage: store, Cache: cache})
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(42))
			var hits, misses []time.Duration
			for i := 0; i < requests; i++ {
				// 前几页更热
				page := 1 + int(rng.ExpFloat64()*float64(pages)/4)%pages
				req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/?page=%d", page), nil)
				w := httptest.NewRecorder()
				st := time.Now()
				engine.ServeHTTP(w, req)
				d := time.Since(st)
				if w.Header().Get(pagecache.HeaderCache) == "HIT" {
					hits = append(hits, d)
				} else {
					misses = append(misses, d)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "requests=%d pages=%d ttl=%v\n", requests, pages, cfg.Cache.IndexTTL)
			fmt.Fprintf(out, "hit rate: %.1f%%\n", 100*float64(len(hits))/float64(max(requests, 1)))
			fmt.Fprintf(out, "hit  p50=%v p95=%v p99=%v\n", percentile(hits, 0.50), percentile(hits, 0.95), percentile(hits, 0.99))
			fmt.Fprintf(out, "miss p50=%v p95=%v p99=%v\n", percentile(misses, 0.50), percentile(misses, 0.95), percentile(misses, 0.99))
			return nil
		},
	}
	cmd.Flags().IntVar(&requests, "requests", 2000, "number of requests")
	cmd.Flags().IntVar(&pages, "pages", 20, "distinct page numbers")
	return cmd
}

// 对前 N 个用户构建关注流首页
func newBenchFeedCommand() *cobra.Command {
	var viewers int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Time the follow feed query for existing users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			users, err := repository.NewUserRepository(db).List(ctx, 0, viewers)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				return fmt.Errorf("no users found, run seed first")
			}
			svcs := server.NewServices(cfg, db, nil, nil)

			lat := make([]time.Duration, 0, len(users))
			var rows int
			for _, u := range users {
				st := time.Now()
				page, err := svcs.Feed.Build(ctx, u.ID, "1")
				if err != nil {
					return err
				}
				lat = append(lat, time.Since(st))
				rows += len(page.Items)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "viewers=%d rows=%d p50=%v p95=%v p99=%v\n",
				len(users), rows, percentile(lat, 0.50), percentile(lat, 0.95), percentile(lat, 0.99))
			return nil
		},
	}
	cmd.Flags().IntVar(&viewers, "viewers", 100, "number of users to build the feed for")
	return cmd
}
