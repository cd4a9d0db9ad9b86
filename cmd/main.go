package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/budgetpilot/finassist/internal/agent"
	"github.com/budgetpilot/finassist/internal/config"
	"github.com/budgetpilot/finassist/internal/conversation"
	"github.com/budgetpilot/finassist/internal/findata"
	"github.com/budgetpilot/finassist/internal/httpapi"
	"github.com/budgetpilot/finassist/internal/llm"
	"github.com/budgetpilot/finassist/internal/scheduler"
	"github.com/budgetpilot/finassist/internal/tools"
	"github.com/budgetpilot/finassist/pkg/log"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		log.Fatal("%v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := findata.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}

	conversations := conversation.NewStore(
		conversation.WithMaxMessages(cfg.Conversation.MaxMessages),
		conversation.WithTimeout(time.Duration(cfg.Conversation.TimeoutMinutes)*time.Minute),
	)

	var orchOpts []agent.OrchestratorOption
	if cfg.Search.APIKey != "" {
		orchOpts = append(orchOpts, agent.WithWebSearch(tools.NewWebSearch(cfg.Search.APIKey, cfg.Search.APIURL)))
		log.Info("financial information agent enabled")
	}
	factory := func(ctx context.Context, userID int64) (*agent.Orchestrator, error) {
		return agent.NewOrchestrator(ctx, client, store, userID, cfg.Agent.MaxIterations, orchOpts...)
	}
	server := httpapi.NewServer(factory, conversations)

	var recurring *scheduler.Recurring
	if cfg.Recurring.Enabled {
		recurring, err = scheduler.NewRecurring(store, cfg.Recurring.CronExpr)
		if err != nil {
			return err
		}
		recurring.Start()
		log.Info("recurring expense scheduler started (%s)", cfg.Recurring.CronExpr)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(cfg.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if recurring != nil {
			<-recurring.Stop().Done()
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("goodbye")
	return nil
}
