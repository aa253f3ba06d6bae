package main

import (
	"context"
	"os"

	"github.com/bryanwahyu/automaton-assess/internal/application/publish"
	"github.com/bryanwahyu/automaton-assess/internal/config"
	"github.com/bryanwahyu/automaton-assess/internal/domain/assessment"
	aiclient "github.com/bryanwahyu/automaton-assess/internal/infra/ai/openai"
	"github.com/bryanwahyu/automaton-assess/internal/infra/azure"
	"github.com/bryanwahyu/automaton-assess/internal/infra/github"
	"github.com/bryanwahyu/automaton-assess/internal/infra/httpclient"
	"github.com/bryanwahyu/automaton-assess/internal/infra/sarif"
	minioStore "github.com/bryanwahyu/automaton-assess/internal/infra/storage"
	"github.com/bryanwahyu/automaton-assess/internal/logging"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		logging.New("").Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	// validate required inputs before anything touches the network
	if err := cfg.Validate(); err != nil {
		logger.Error("config validation error", "error", err)
		os.Exit(1)
	}
	severity, _ := assessment.ParseSeverity(cfg.Severity)

	ctx := context.Background()
	creds := cfg.AzureCredentials()

	// shared retrying transport for the token exchange and the upserts
	retrying := httpclient.NewRetrying(logger, httpclient.TransientStatuses...)

	svc := &publish.Service{
		Tokens:  azure.NewTokenClient(retrying, logger, creds),
		Checks:  github.NewClient(httpclient.NewPlain(), logger, cfg.GitHubAPIURL, cfg.Repository, cfg.GitHubToken),
		Reports: sarif.NewParser(),
		Writer:  azure.NewSecurityCenter(retrying, logger, creds.ResourceManagerURL, creds.SubscriptionID),
		Logger:  logger,
	}

	// optional report upload
	if cfg.ArtifactsConfigured() {
		store, err := minioStore.New(ctx,
			cfg.Artifacts.Endpoint,
			cfg.Artifacts.Region,
			cfg.Artifacts.BucketName,
			cfg.Artifacts.AccessKey,
			cfg.Artifacts.SecretKey,
			cfg.Artifacts.UseSSL,
		)
		if err != nil {
			logger.Warn("artifact store init failed, continuing without upload", "error", err)
		} else {
			svc.Artifacts = store
		}
	}

	// optional AI remediation suggestions
	if cfg.AI.APIKey != "" {
		svc.Advisor = aiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	}

	res, err := svc.Publish(ctx, publish.PublishCommand{
		Commit:     cfg.Commit,
		Workflow:   cfg.Workflow,
		RunID:      cfg.RunID,
		ReportPath: cfg.ReportPath,
		Title:      cfg.Title,
		Severity:   severity,
		Scope:      cfg.Scope(),
	})
	if err != nil {
		logger.Error("publish failed", "error", err)
		os.Exit(1)
	}

	logger.Info("assessment published",
		"metadata", res.MetadataName,
		"id", res.MetadataID,
		"conclusion", res.Conclusion,
	)
}
