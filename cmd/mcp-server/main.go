// Package main provides the MCP server entry point for incident report search.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/incidentlabs/hybrid-index/internal/embedding"
	"github.com/incidentlabs/hybrid-index/internal/index"
	mcpserver "github.com/incidentlabs/hybrid-index/internal/mcp"
	"github.com/incidentlabs/hybrid-index/internal/search"
	"github.com/incidentlabs/hybrid-index/internal/term"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnv("QDRANT_COLLECTION", "incident-reports")
	port := getEnv("PORT", "8080")

	idx, err := index.NewQdrant(index.QdrantConfig{
		Host:       qdrantHost,
		Port:       qdrantPort,
		Collection: collection,
		Dimension:  embedding.Dimension,
	})
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer idx.Close()

	if err := idx.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	client, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, 0) // Use default batch size
	composer := search.NewComposer(embedder, term.NewTokenizer(), idx)

	server := mcpserver.NewServer(&mcpserver.Config{
		Store:    idx,
		Composer: composer,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(idx))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// SERVER_MODE=true serves MCP over HTTP for remote clients; otherwise the
	// server speaks stdio with a background health endpoint for local testing.
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting Incident Report MCP Server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
