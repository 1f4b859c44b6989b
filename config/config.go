// Package config resolves settings from flags, the environment and an
// optional .env file, in that order of precedence.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Mode            string
	Addr            string
	DBPath          string
	AdminPassphrase string
	CORSOrigins     []string

	// terminal admin commands
	AddCategory string
	ImportFile  string
	Category    string
}

// Load parses args (without the program name). A missing .env file is not
// an error.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("quizdesk: ignoring .env: %v", err)
	}

	cfg := &Config{}
	fs := flag.NewFlagSet("quizdesk", flag.ContinueOnError)
	fs.StringVar(&cfg.Mode, "mode", getEnv("QUIZ_MODE", "cli"), "cli or web")
	fs.StringVar(&cfg.Addr, "addr", getEnv("QUIZ_ADDR", ":8080"), "listen address for web mode")
	fs.StringVar(&cfg.DBPath, "db", getEnv("QUIZ_DB_PATH", "quiz_database.db"), "path to the quiz database file")
	fs.StringVar(&cfg.AddCategory, "add-category", "", "create a category and exit")
	fs.StringVar(&cfg.ImportFile, "import", "", "import questions from a JSON file and exit")
	fs.StringVar(&cfg.Category, "category", "", "category for imported questions that name none")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode != "cli" && cfg.Mode != "web" {
		return nil, fmt.Errorf("unknown mode %q, want cli or web", cfg.Mode)
	}
	cfg.AdminPassphrase = os.Getenv("QUIZ_ADMIN_PASSPHRASE")
	cfg.CORSOrigins = splitList(getEnv("QUIZ_CORS_ORIGINS", "http://localhost:8080"))
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
