package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/Adivarma1619/insurance-rag-bot/agent"
	"github.com/Adivarma1619/insurance-rag-bot/app/api"
	"github.com/Adivarma1619/insurance-rag-bot/chunker"
	"github.com/Adivarma1619/insurance-rag-bot/extract"
	"github.com/Adivarma1619/insurance-rag-bot/model"
	"github.com/Adivarma1619/insurance-rag-bot/service"
	"github.com/Adivarma1619/insurance-rag-bot/store"
	"github.com/Adivarma1619/insurance-rag-bot/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    types.Config
	logger *slog.Logger
}

func NewServer(cfg types.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		log.Fatal("error to create data directory: ", err)
		return
	}

	splitter, err := chunker.New()
	if err != nil {
		log.Fatal("error to init tokenizer: ", err)
		return
	}

	embedder, err := model.NewOpenAIEmbedder(s.cfg.OpenAIKey, s.cfg.EmbedModel)
	if err != nil {
		log.Fatal("error to init embedder: ", err)
		return
	}

	generator, err := agent.New(s.cfg.GroqKey, s.cfg.GroqBaseURL, s.cfg.ChatModel)
	if err != nil {
		log.Fatal("error to init generator: ", err)
		return
	}

	var catalog store.Catalog
	if s.cfg.PGHost != "" {
		connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			s.cfg.PGHost, s.cfg.PGPort, s.cfg.PGUser, s.cfg.PGPass, s.cfg.PGDBName)
		pg, err := store.NewPostgresCatalog(ctx, connStr)
		if err != nil {
			log.Fatal("error to connect to Postgres database", err)
			return
		}
		if err := pg.Init(ctx); err != nil {
			log.Fatal("error to create tables", err)
			return
		}
		defer pg.Close()
		catalog = pg
	}
	if s.cfg.SearchBackend == "pgvector" && catalog == nil {
		log.Fatal("SEARCH_BACKEND=pgvector requires the Postgres catalog (set PG_HOST)")
		return
	}

	registry := extract.NewRegistry(s.cfg)
	library := store.NewLibrary()
	svc := service.New(s.cfg, registry, splitter, embedder, generator, library, catalog)

	var (
		app            = fiber.New(config)
		checkHandler   = api.NewCheckHandler()
		requestHandler = api.NewRequestHandler(svc, registry, s.cfg.DataDir)
		check          = app.Group("/check")
		apiv1          = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/chat", requestHandler.HandleChat)
	apiv1.Post("/ingest", requestHandler.HandleIngest)
	apiv1.Post("/upload", requestHandler.HandleUpload)
	apiv1.Get("/files", requestHandler.HandleFiles)
	apiv1.Post("/use-file/:filename", requestHandler.HandleUseFile)

	err = app.Listen(s.cfg.ServerAddr)
	if err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}
