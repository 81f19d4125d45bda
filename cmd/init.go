package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-tools/demo-provisioner/internal/application"
	"github.com/storefront-tools/demo-provisioner/internal/application/commands"
	"github.com/storefront-tools/demo-provisioner/internal/application/query"
	"github.com/storefront-tools/demo-provisioner/internal/application/runlock"
	"github.com/storefront-tools/demo-provisioner/internal/infra/auth"
	"github.com/storefront-tools/demo-provisioner/internal/infra/client/content"
	"github.com/storefront-tools/demo-provisioner/internal/infra/client/edge"
	"github.com/storefront-tools/demo-provisioner/internal/infra/client/repos"
	"github.com/storefront-tools/demo-provisioner/internal/infra/config"
	"github.com/storefront-tools/demo-provisioner/internal/infra/dataload"
	infradb "github.com/storefront-tools/demo-provisioner/internal/infra/db"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db/repo"
	"github.com/storefront-tools/demo-provisioner/internal/infra/retry"
	"github.com/storefront-tools/demo-provisioner/internal/presentation/rest"
	"github.com/storefront-tools/demo-provisioner/internal/presentation/scheduler"
	"github.com/storefront-tools/demo-provisioner/pkg/db"
	"github.com/storefront-tools/demo-provisioner/pkg/env"
)

func Init() {
	// DB
	dbConfig := db.NewConfig()
	pool, err := pgxpool.New(context.Background(), dbConfig.GetDSN())
	if err != nil {
		log.Panicf("failed to create pool: %v", err)
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Panicf("failed to connect to db: %v", err)
	}
	if err = infradb.InitSchema(context.Background(), pool); err != nil {
		log.Panicf("failed to init schema: %v", err)
	}

	// Configs
	provisionConfig := config.NewProvisionConfig()
	reposConfig := repos.NewConfig()
	contentConfig := content.NewConfig()
	edgeConfig := edge.NewConfig()
	runnerConfig := scheduler.NewRunnerConfig()

	// Credentials are owned by the host application and only injected here
	creds := auth.NewCredentialsFromEnv()
	validator, err := auth.NewTokenValidator(context.Background())
	if err != nil {
		log.Panicf("failed to init token validator: %v", err)
	}

	// Clients
	reposClient := repos.NewClient(reposConfig, creds.RepoTokens)
	contentClient := content.NewClient(contentConfig, creds.ContentTokens)
	edgeClient := edge.NewClient(edgeConfig, creds.ContentTokens)
	dataTool := dataload.NewTool(dataload.NewConfig())

	executor := retry.NewExecutor(retry.Policy{
		MaxAttempts:       provisionConfig.RetryAttempts,
		BaseDelay:         provisionConfig.RetryBase,
		RetryableStatuses: retry.DefaultPolicy().RetryableStatuses,
	})

	// Stores
	projectRepo := repo.NewProjectRepo(pool)
	recordRepo := repo.NewRecordRepo(pool)
	jobRepo := repo.NewJobRepo(pool)
	locks := runlock.NewRegistry()

	uowFactory := db.NewUoWFactory(pool)
	handlers := &application.Handlers{
		CreateProject:    commands.NewCreateProject(uowFactory),
		ProvisionProject: commands.NewProvisionProject(provisionConfig, creds, validator, reposClient, contentClient, edgeClient, recordRepo, executor),
		CleanupProject:   commands.NewCleanupProject(creds, reposClient, contentClient, edgeClient, dataTool, recordRepo, executor),
		ImportDemoData:   commands.NewImportDemoData(creds, dataTool, recordRepo, executor),
		GetProject:       query.NewGetProject(projectRepo, recordRepo),
	}

	server := rest.NewServer(handlers, jobRepo, locks)
	app := fiber.New(fiber.Config{
		IdleTimeout: 5 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ORIGINS", "http://localhost:3000"),
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	rest.RegisterHandlers(app, server)

	runner := scheduler.NewRunner(handlers, projectRepo, jobRepo, locks, runnerConfig)
	go runner.Start()

	go func() {
		if err := app.Listen(":" + env.GetEnv("PORT", "8080")); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	fmt.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	runner.Stop()

	pool.Close()
	fmt.Println("Provisioner was successfully shutdown.")
}
