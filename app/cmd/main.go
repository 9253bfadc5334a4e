package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Adivarma1619/insurance-rag-bot/app/server"
	"github.com/Adivarma1619/insurance-rag-bot/types"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
}

func main() {
	s := server.NewServer(configFromEnv())

	go s.Run()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	s.Stop()
}

func configFromEnv() types.Config {
	return types.Config{
		ServerAddr:    envStr("SERVER_ADDR", ":8000"),
		DataDir:       envStr("DATA_DIR", "data"),
		ChunkSize:     envInt("CHUNK_SIZE", 450),
		ChunkOverlap:  envInt("CHUNK_OVERLAP", 80),
		RetrieveK:     envInt("RETRIEVE_K", 4),
		EmbedModel:    envStr("EMBED_MODEL", "text-embedding-3-small"),
		ChatModel:     envStr("CHAT_MODEL", "llama-3.3-70b-versatile"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		GroqKey:       os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:   envStr("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		PDFCropTop:    envFloat("PDF_CROP_TOP", 0),
		PDFCropBottom: envFloat("PDF_CROP_BOTTOM", 0),
		PGHost:        os.Getenv("PG_HOST"),
		PGPort:        envInt("PG_PORT", 5432),
		PGUser:        os.Getenv("PG_USER"),
		PGPass:        os.Getenv("PG_PASS"),
		PGDBName:      os.Getenv("PG_DB_NAME"),
		SearchBackend: envStr("SEARCH_BACKEND", "file"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %g", key, v, def)
		return def
	}
	return f
}
