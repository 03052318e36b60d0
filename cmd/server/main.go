package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/dadanbeck/canvass/internal/api"
	"github.com/dadanbeck/canvass/internal/config"
	"github.com/dadanbeck/canvass/internal/pkg/store"
	"github.com/dadanbeck/canvass/internal/pkg/workerpool"
	"github.com/dadanbeck/canvass/internal/services"
)

func main() {
	cfg := config.Load("canvass.yaml")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo services.Repository
	var pages api.QuestionPager

	if cfg.DBURL != "" {
		db, err := sqlx.Connect("postgres", cfg.DBURL)
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer db.Close()

		if cfg.AutoMigrate {
			if err := store.EnsureSchema(ctx, db); err != nil {
				log.Fatalf("apply schema: %v", err)
			}
		}

		repo = store.NewPostgresStore(db)
		pages = store.NewQuestionPager(db)
	} else {
		mem := store.NewMemoryStore()
		mem.SeedTenant("Demo", "demo")
		repo = mem
		log.Println("no database configured, using in-memory store (tenant slug: demo)")
	}

	pool := workerpool.New(ctx, cfg.Workers, cfg.QueueSize)

	branches := services.NewBranchService(repo)
	a := &api.API{
		Surveys:       services.NewSurveyService(repo),
		Sections:      services.NewSectionService(repo),
		Questions:     services.NewQuestionService(repo),
		Builder:       services.NewBuilderService(repo),
		Nav:           services.NewNavigationService(repo),
		Graphs:        api.NewGraphCache(branches, pool),
		QuestionPages: pages,
	}

	r := api.NewRouter(a, repo)

	log.Printf("canvass listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Printf("server stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool.Shutdown(shutdownCtx)
}
