package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/automaton-assess/internal/domain/assessment"
)

const (
	defaultAuthorityURL       = "https://login.microsoftonline.com"
	defaultResourceManagerURL = "https://management.azure.com"
)

type Config struct {
	Commit       string `yaml:"commit"`
	GitHubToken  string `yaml:"githubToken"`
	GitHubAPIURL string `yaml:"githubApiUrl"`
	Repository   string `yaml:"repository"`
	Workflow     string `yaml:"workflow"`
	RunID        string `yaml:"runId"`

	ReportPath    string `yaml:"reportPath"`
	Title         string `yaml:"title"`
	Severity      string `yaml:"severity"`
	ResourceGroup string `yaml:"resourceGroup"`
	ClusterName   string `yaml:"clusterName"`
	WebAppName    string `yaml:"webAppName"`

	LogLevel string `yaml:"logLevel"`

	Credentials CredentialsBlob `yaml:"credentials"`

	Artifacts struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"artifacts"`

	AI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"ai"`
}

// CredentialsBlob mirrors the service-principal JSON handed to the run
// (the `az ad sp create-for-rbac --sdk-auth` shape).
type CredentialsBlob struct {
	ClientID           string `json:"clientId" yaml:"clientId"`
	ClientSecret       string `json:"clientSecret" yaml:"clientSecret"`
	TenantID           string `json:"tenantId" yaml:"tenantId"`
	SubscriptionID     string `json:"subscriptionId" yaml:"subscriptionId"`
	AuthorityURL       string `json:"activeDirectoryEndpointUrl" yaml:"activeDirectoryEndpointUrl"`
	ResourceManagerURL string `json:"resourceManagerEndpointUrl" yaml:"resourceManagerEndpointUrl"`
}

// Load reads configuration in layers: optional .env, optional yaml file,
// then environment variables on top. Validation happens separately so
// tests can build configs directly.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	overlay(&cfg.Commit, "GITHUB_SHA")
	overlay(&cfg.GitHubToken, "GITHUB_TOKEN")
	overlay(&cfg.GitHubAPIURL, "GITHUB_API_URL")
	overlay(&cfg.Repository, "GITHUB_REPOSITORY")
	overlay(&cfg.Workflow, "GITHUB_WORKFLOW")
	overlay(&cfg.RunID, "GITHUB_RUN_ID")
	overlay(&cfg.ReportPath, "SCAN_REPORT_PATH")
	overlay(&cfg.Title, "ASSESSMENT_TITLE")
	overlay(&cfg.Severity, "ASSESSMENT_SEVERITY")
	overlay(&cfg.ResourceGroup, "RESOURCE_GROUP")
	overlay(&cfg.ClusterName, "AKS_CLUSTER_NAME")
	overlay(&cfg.WebAppName, "WEB_APP_NAME")
	overlay(&cfg.LogLevel, "LOG_LEVEL")
	overlay(&cfg.Artifacts.Endpoint, "ARTIFACT_ENDPOINT")
	overlay(&cfg.Artifacts.AccessKey, "ARTIFACT_ACCESS_KEY")
	overlay(&cfg.Artifacts.SecretKey, "ARTIFACT_SECRET_KEY")
	overlay(&cfg.Artifacts.BucketName, "ARTIFACT_BUCKET")
	overlay(&cfg.Artifacts.Region, "ARTIFACT_REGION")
	overlay(&cfg.AI.APIKey, "OPENAI_API_KEY")
	overlay(&cfg.AI.Model, "OPENAI_MODEL")
	if os.Getenv("ARTIFACT_USE_SSL") == "true" {
		cfg.Artifacts.UseSSL = true
	}

	if blob := os.Getenv("AZURE_CREDENTIALS"); blob != "" {
		if err := json.Unmarshal([]byte(blob), &cfg.Credentials); err != nil {
			return nil, fmt.Errorf("%w: AZURE_CREDENTIALS is not valid JSON: %v", assessment.ErrConfig, err)
		}
	}

	return &cfg, nil
}

func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks every required input before any network call is made.
func (c *Config) Validate() error {
	if _, err := assessment.ParseSeverity(c.Severity); err != nil {
		return err
	}
	if c.ResourceGroup == "" {
		return fmt.Errorf("%w: resourceGroup is required", assessment.ErrConfig)
	}
	if _, err := c.Scope().ResourceID(); err != nil {
		return err
	}
	for field, v := range map[string]string{
		"clientId":       c.Credentials.ClientID,
		"clientSecret":   c.Credentials.ClientSecret,
		"tenantId":       c.Credentials.TenantID,
		"subscriptionId": c.Credentials.SubscriptionID,
	} {
		if v == "" {
			return fmt.Errorf("%w: credentials missing %s", assessment.ErrConfig, field)
		}
	}
	return nil
}

// Scope builds the target resource scope from the configured inputs.
func (c *Config) Scope() assessment.Scope {
	return assessment.Scope{
		SubscriptionID: c.Credentials.SubscriptionID,
		ResourceGroup:  c.ResourceGroup,
		ClusterName:    c.ClusterName,
		WebAppName:     c.WebAppName,
	}
}

// AzureCredentials applies endpoint defaults and returns the typed
// credential set used by the token exchange.
func (c *Config) AzureCredentials() assessment.Credentials {
	creds := assessment.Credentials{
		ClientID:           c.Credentials.ClientID,
		ClientSecret:       c.Credentials.ClientSecret,
		TenantID:           c.Credentials.TenantID,
		SubscriptionID:     c.Credentials.SubscriptionID,
		AuthorityURL:       c.Credentials.AuthorityURL,
		ResourceManagerURL: c.Credentials.ResourceManagerURL,
	}
	if creds.AuthorityURL == "" {
		creds.AuthorityURL = defaultAuthorityURL
	}
	if creds.ResourceManagerURL == "" {
		creds.ResourceManagerURL = defaultResourceManagerURL
	}
	return creds
}

// ArtifactsConfigured reports whether the optional report upload is on.
func (c *Config) ArtifactsConfigured() bool {
	return c.Artifacts.Endpoint != "" && c.Artifacts.BucketName != ""
}
