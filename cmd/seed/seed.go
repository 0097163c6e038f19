package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nulzo/prism-console/internal/store/model"
	"github.com/nulzo/prism-console/internal/store/sqlite"
)

func main() {
	repo, err := sqlite.NewSQLiteStorage("console.db")
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()

	// Providers and models are seeded with raw SQL since the console's
	// repositories are read-only for them (the gateway owns their lifecycle).
	db, err := sqlx.Connect("sqlite3", "console.db")
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	providers := []model.Provider{
		{ID: "openai-main", Name: "OpenAI", Type: "openai", BaseURL: "https://api.openai.com/v1", IsEnabled: true},
		{ID: "local-ollama", Name: "Ollama Local", Type: "ollama", BaseURL: "http://localhost:11434", IsEnabled: true},
	}
	for _, p := range providers {
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO providers (id, name, type, base_url, is_enabled)
			VALUES (?, ?, ?, ?, ?)`, p.ID, p.Name, p.Type, p.BaseURL, p.IsEnabled)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Created provider: %s\n", p.ID)
	}

	catalog := map[string][]string{
		"openai-main":  {"gpt-4o", "gpt-4o-mini", "o3-mini"},
		"local-ollama": {"llama3:8b", "mistral:7b"},
	}
	for providerID, names := range catalog {
		for i, name := range names {
			_, err := db.ExecContext(ctx, `
				INSERT OR IGNORE INTO catalog_entries (provider_id, model_name, source, position)
				VALUES (?, ?, 'upstream', ?)`, providerID, name, i)
			if err != nil {
				log.Fatal(err)
			}
		}
	}

	models := []model.Model{
		{ID: uuid.New().String(), Name: "gpt-4o", Description: "Flagship multimodal"},
		{ID: uuid.New().String(), Name: "gpt-4o-mini", Description: "Small and fast"},
		{ID: uuid.New().String(), Name: "llama3:8b", Description: "Local llama"},
	}
	for _, m := range models {
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO models (id, name, description)
			VALUES (?, ?, ?)`, m.ID, m.Name, m.Description)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Created model: %s\n", m.Name)
	}

	rawKey := "sk-console-1234567890"
	hash := sha256.Sum256([]byte(rawKey))
	hashedHex := hex.EncodeToString(hash[:])

	key := &model.APIKey{
		ID:        uuid.New().String(),
		Name:      "Seed Key",
		KeyHash:   hashedHex,
		KeyPrefix: "sk-console-",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := repo.APIKeys().Create(ctx, key); err != nil {
		log.Printf("API key might already exist: %v", err)
	}

	fmt.Printf("\nSuccessfully seeded database!\n")
	fmt.Printf("API Key: %s\n", rawKey)
	fmt.Printf("Use this key in your Authorization header: Bearer %s\n", rawKey)
}
