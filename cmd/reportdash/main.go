package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/akaul/reportdash/internal/app"
	"github.com/akaul/reportdash/internal/credential"
	"github.com/akaul/reportdash/internal/ingest"
	"github.com/akaul/reportdash/internal/model"
	"github.com/akaul/reportdash/internal/source/graph"
	"github.com/akaul/reportdash/internal/store"
)

func main() {
	var (
		ingestMode = flag.Bool("ingest", false, "run one ingestion batch and exit")
		setupMode  = flag.Bool("setup", false, "store the mail API credentials and exit")
		configPath = flag.String("config", model.DefaultConfigPath(), "path to the config file")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Secrets may also arrive via a local .env file, matching how the
	// reporting jobs are deployed.
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("no .env file loaded")
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	if *setupMode {
		if err := runSetup(); err != nil {
			log.WithError(err).Fatal("storing credentials")
		}
		log.Info("credentials stored")
		return
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("opening report store")
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.WithError(err).Error("closing report store")
		}
	}()

	if *ingestMode {
		if err := runIngest(log, cfg, s); err != nil {
			log.WithError(err).Fatal("ingestion failed")
		}
		return
	}

	if err := app.Run(s); err != nil {
		log.WithError(err).Fatal("viewer exited")
	}
}

// runIngest executes one ingestion batch and prints its summary.
func runIngest(log *logrus.Logger, cfg *model.AppConfig, s *store.SQLiteStore) error {
	tokens := graph.NewTokenProvider(graph.TokenConfig{
		TenantID:     credential.Resolve(credential.KeyTenantID),
		ClientID:     credential.Resolve(credential.KeyClientID),
		ClientSecret: credential.Resolve(credential.KeyClientSecret),
		LoginBaseURL: cfg.Mailbox.LoginBaseURL,
	})
	mailbox := graph.NewClient(tokens, cfg.Mailbox.GraphBaseURL)

	coordinator := ingest.New(log, mailbox, s, ingest.Config{
		Folder:      cfg.Mailbox.Folder,
		FetchLimit:  cfg.Mailbox.FetchLimit,
		OnDuplicate: cfg.Ingest.OnDuplicate,
	})

	summary, err := coordinator.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf(
		"accepted %d, duplicates %d, unparseable %d\n",
		summary.Accepted, summary.SkippedDuplicate, summary.SkippedUnparseable,
	)
	return nil
}

// runSetup collects the three Graph client-credential secrets and
// writes them to the system keyring.
func runSetup() error {
	var tenantID, clientID, clientSecret string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tenant ID").
				Description("Directory (tenant) ID of the app registration").
				Value(&tenantID).
				Validate(required("tenant id")),
			huh.NewInput().
				Title("Client ID").
				Description("Application (client) ID").
				Value(&clientID).
				Validate(required("client id")),
			huh.NewInput().
				Title("Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret).
				Validate(required("client secret")),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("collecting credentials: %w", err)
	}

	if err := credential.Set(credential.KeyTenantID, tenantID); err != nil {
		return err
	}
	if err := credential.Set(credential.KeyClientID, clientID); err != nil {
		return err
	}
	return credential.Set(credential.KeyClientSecret, clientSecret)
}

// required rejects empty form values.
func required(name string) func(string) error {
	return func(v string) error {
		if v == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
		return nil
	}
}
