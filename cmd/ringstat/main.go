// Command ringstat runs the visits widget server against an Umami instance.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/eringen/ringstat"
	"github.com/eringen/ringstat/umami"
)

func main() {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg := ringstat.Config{
		Title:      ringstat.EnvOr("RINGSTAT_TITLE", "Website stats"),
		Addr:       ringstat.EnvOr("RINGSTAT_ADDR", ":3000"),
		BaseURL:    os.Getenv("RINGSTAT_BASE_URL"),
		UmamiURL:   ringstat.MustEnv("UMAMI_URL"),
		UmamiToken: os.Getenv("UMAMI_TOKEN"),
		WebsiteID:  ringstat.MustEnv("UMAMI_WEBSITE_ID"),
		Timezone:   ringstat.EnvOr("UMAMI_TIMEZONE", "UTC"),
		Region:     os.Getenv("UMAMI_REGION"),
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := umami.New(cfg.UmamiURL, cfg.UmamiToken, logger)

	app := ringstat.New(cfg, client)
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
