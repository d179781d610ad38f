package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/rankboard/internal/config"
	"example.com/rankboard/internal/directory"
	"example.com/rankboard/internal/gateway"
	"example.com/rankboard/internal/reconcile"
	"example.com/rankboard/internal/scheduler"
	postgresstore "example.com/rankboard/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if cfg.DiscordToken == "" {
		log.Fatal("DISCORD_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := postgresstore.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatalf("failed to build gateway session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers

	dir := directory.NewDiscord(session)
	reconciler := reconcile.NewReconciler(dir, cfg.RankLimit, nil)
	orchestrator := reconcile.NewOrchestrator(repo, reconciler, cfg.RankLimit, nil)
	sched := scheduler.New(cfg.UpdateCooldown, orchestrator.Reconcile)

	handler := gateway.NewHandler(repo, sched, cfg.ExcludedRoleIDs, cfg.JoinPassDelay)
	handler.Register(session)

	if err := session.Open(); err != nil {
		log.Fatalf("failed to log in to gateway: %v", err)
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Printf("metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	if cfg.TargetCommunityID != "" {
		log.Printf("scheduling initial pass for community %s", cfg.TargetCommunityID)
		sched.NotifyAfter(cfg.TargetCommunityID, cfg.InitialPassDelay)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutdown requested")
	sched.Stop()
	if err := session.Close(); err != nil {
		log.Printf("gateway close error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}
}
