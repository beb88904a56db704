package main

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/server"
	"github.com/d60-Lab/yatube/internal/service"
)

type seedOptions struct {
	users    int
	posts    int
	follows  int
	groups   int
	password string
}

// 批量造数据，顺带打印写入延迟分位数
func newSeedCommand() *cobra.Command {
	var opt seedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo users, groups, posts and follows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opt.users <= 0 {
				return fmt.Errorf("--users must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			ctx := cmd.Context()

			store, err := server.NewStorage(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			svcs := server.NewServices(cfg, db, store, nil)
			users := repository.NewUserRepository(db)

			// 所有种子用户共用一个密码哈希
			hash, err := bcrypt.GenerateFromPassword([]byte(opt.password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			seeded := make([]*model.User, 0, opt.users)
			for i := 0; i < opt.users; i++ {
				suffix := uuid.NewString()[:8]
				u := &model.User{
					Username:     "user_" + suffix,
					FirstName:    fmt.Sprintf("User %d", i+1),
					Email:        suffix + "@example.com",
					PasswordHash: string(hash),
				}
				if err := users.Create(ctx, u); err != nil {
					return fmt.Errorf("seed user: %w", err)
				}
				seeded = append(seeded, u)
			}

			var groupIDs []uint
			for i := 0; i < opt.groups; i++ {
				slug := "seed-" + uuid.NewString()[:8]
				g, errs, err := svcs.Groups.Create(ctx, forms.GroupForm{Title: "Group " + slug, Slug: slug, Description: "seeded group"})
				if err != nil {
					return err
				}
				if errs.Any() {
					return formError(errs)
				}
				groupIDs = append(groupIDs, g.ID)
			}

			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			lat := make([]time.Duration, 0, opt.users*opt.posts)
			t0 := time.Now()
			for _, u := range seeded {
				for j := 0; j < opt.posts; j++ {
					form := forms.PostForm{Text: fmt.Sprintf("Post %d by %s", j+1, u.Username)}
					if len(groupIDs) > 0 && rng.Intn(2) == 0 {
						form.Group = fmt.Sprint(groupIDs[rng.Intn(len(groupIDs))])
					}
					st := time.Now()
					if _, errs, err := svcs.Posts.Create(ctx, u.ID, form); err != nil {
						return err
					} else if errs.Any() {
						return formError(errs)
					}
					lat = append(lat, time.Since(st))
				}
			}
			postsDur := time.Since(t0)

			followed := 0
			for _, u := range seeded {
				for k := 0; k < opt.follows && len(seeded) > 1; k++ {
					author := seeded[rng.Intn(len(seeded))]
					res, err := svcs.Follows.Follow(ctx, u.ID, author.ID)
					if err != nil {
						return err
					}
					if res == service.FollowCreated {
						followed++
					}
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "users=%d groups=%d posts=%d follows=%d\n", len(seeded), len(groupIDs), len(lat), followed)
			if len(lat) > 0 {
				fmt.Fprintf(out, "post create total: %v, p50: %v, p95: %v, p99: %v\n",
					postsDur, percentile(lat, 0.50), percentile(lat, 0.95), percentile(lat, 0.99))
			}
			fmt.Fprintf(out, "login with any seeded username and password %q\n", opt.password)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&opt.users, "users", 10, "number of users")
	f.IntVar(&opt.posts, "posts", 13, "posts per user")
	f.IntVar(&opt.follows, "follows", 3, "follow attempts per user")
	f.IntVar(&opt.groups, "groups", 2, "number of groups")
	f.StringVar(&opt.password, "password", "yatube-demo", "password for every seeded user")
	return cmd
}

func percentile(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}
