// Command maintenance runs one-off repair tasks against the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"campus/internal/auth"
	"campus/internal/bootcamp"
	"campus/internal/config"
	"campus/internal/logger"
	"campus/internal/maintenance"
	"campus/internal/notify"
	"campus/internal/store"
	"campus/internal/user"
)

const tasks = "dedupe-users|dedupe-posts|dedupe-categories|fix-courses|all|create-admin"

func main() {
	task := flag.String("task", "", "task to run: "+tasks)
	dryRun := flag.Bool("dry-run", false, "report duplicates without changing anything")
	email := flag.String("email", "", "admin email (create-admin)")
	name := flag.String("name", "Administrator", "admin name (create-admin)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (create-admin, defaults to $ADMIN_PASSWORD)")
	flag.Parse()

	steps, ok := plan(*task)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown task %q, want one of %s\n", *task, strings.ReplaceAll(tasks, "|", ", "))
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	lg := logger.Get().With().Str("component", "maintenance").Logger()

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if steps == nil {
		signer := auth.Signer{Key: cfg.JWTSigningKey, Issuer: cfg.JWTIssuer, AccessTTL: cfg.AccessTTL, RefreshTTL: cfg.RefreshTTL}
		u, err := user.NewService(user.NewRepository(db.Client), signer).CreateAdmin(ctx, *email, *name, *password)
		if err != nil {
			lg.Fatal().Err(err).Msg("create admin failed")
		}
		lg.Info().Str("user_id", u.ID).Str("email", u.Email).Msg("admin created")
		return
	}

	if err := run(ctx, steps, *dryRun, db, lg); err != nil {
		lg.Fatal().Err(err).Msg("maintenance failed")
	}
}

// plan expands a task name into steps. create-admin has no steps.
func plan(task string) ([]string, bool) {
	switch task {
	case "create-admin":
		return nil, true
	case "all":
		return []string{"dedupe-users", "dedupe-categories", "dedupe-posts", "fix-courses"}, true
	case "dedupe-users", "dedupe-posts", "dedupe-categories", "fix-courses":
		return []string{task}, true
	}
	return nil, false
}

func run(ctx context.Context, steps []string, dryRun bool, db *store.DB, lg zerolog.Logger) error {
	d := maintenance.NewDeduper(db.Client, lg)
	dedupe := map[string]func(context.Context, bool) (maintenance.Report, error){
		"dedupe-users":      d.DedupeUsers,
		"dedupe-posts":      d.DedupePosts,
		"dedupe-categories": d.DedupeCategories,
	}

	for _, step := range steps {
		if step == "fix-courses" {
			if dryRun {
				lg.Info().Msg("fix-courses skipped in dry run")
				continue
			}
			svc := bootcamp.NewService(bootcamp.NewRepository(db.Client), notify.NewNotifier(notify.NewLogSender(lg), "", lg), lg)
			updates, err := svc.FixCourses(ctx)
			if err != nil {
				return fmt.Errorf("fix-courses: %w", err)
			}
			for _, u := range updates {
				lg.Info().Str("enrollment_id", u.ID).Str("name", u.Name).Str("course", u.AssignedCourse).Msg("course assigned")
			}
			continue
		}
		report, err := dedupe[step](ctx, dryRun)
		if err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
		lg.Info().Str("task", report.Task).Int("groups", report.Groups).Strs("removed", report.Removed).
			Bool("dry_run", report.DryRun).Msg("dedupe finished")
	}
	return nil
}
