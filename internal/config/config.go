package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/xeipuuv/gojsonschema"

	dserrors "github.com/systmms/smpull/internal/errors"
	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/internal/output"
	"github.com/systmms/smpull/internal/truststore"
	"github.com/systmms/smpull/pkg/mapping"
	"github.com/systmms/smpull/pkg/secretstore"
)

//go:embed schema.json
var schemaJSON string

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SMPULL_"

// DefaultFiles are tried in order when no configuration path is given.
var DefaultFiles = []string{"smpull.yaml", "smpull.yml", "smpull.toml"}

// Definition represents the smpull configuration file.
type Definition struct {
	ProjectID         string                   `koanf:"projectId" json:"projectId"`
	Mappings          []mapping.Mapping        `koanf:"mappings" json:"mappings"`
	ComplexMappings   []mapping.ComplexMapping `koanf:"complexMappings" json:"complexMappings,omitempty"`
	OutputMethod      string                   `koanf:"outputMethod" json:"outputMethod,omitempty"`
	OutputDir         string                   `koanf:"outputDir" json:"outputDir,omitempty"`
	ExistingStorePath string                   `koanf:"existingStorePath" json:"existingStorePath,omitempty"`
	StorePassword     string                   `koanf:"storePassword" json:"-"`
	StoreType         string                   `koanf:"storeType" json:"storeType,omitempty"`
	SkipExecution     bool                     `koanf:"skipExecution" json:"skipExecution,omitempty"`
	Store             StoreConfig              `koanf:"store" json:"store"`
}

// StoreConfig selects and configures the secret store.
type StoreConfig struct {
	Type string `koanf:"type" json:"type"`

	// gcp
	CredentialsFile           string `koanf:"credentialsFile" json:"credentialsFile,omitempty"`
	ImpersonateServiceAccount string `koanf:"impersonateServiceAccount" json:"impersonateServiceAccount,omitempty"`

	// gcp, aws-secretsmanager, aws-ssm
	Endpoint string `koanf:"endpoint" json:"endpoint,omitempty"`

	// aws-secretsmanager, aws-ssm
	Region          string `koanf:"region" json:"region,omitempty"`
	Profile         string `koanf:"profile" json:"profile,omitempty"`
	AccessKeyID     string `koanf:"accessKeyId" json:"-"`
	SecretAccessKey string `koanf:"secretAccessKey" json:"-"`
	AssumeRole      string `koanf:"assumeRole" json:"assumeRole,omitempty"`
	ExternalID      string `koanf:"externalId" json:"externalId,omitempty"`

	// azure-keyvault
	VaultURL           string `koanf:"vaultUrl" json:"vaultUrl,omitempty"`
	TenantID           string `koanf:"tenantId" json:"tenantId,omitempty"`
	ClientID           string `koanf:"clientId" json:"clientId,omitempty"`
	ClientSecret       string `koanf:"clientSecret" json:"-"`
	UseManagedIdentity bool   `koanf:"useManagedIdentity" json:"useManagedIdentity,omitempty"`
	UserAssignedID     string `koanf:"userAssignedId" json:"userAssignedId,omitempty"`
}

// Config holds the runtime configuration
type Config struct {
	// Path is the configuration file. Empty looks for DefaultFiles.
	Path       string
	Logger     *logging.Logger
	Definition *Definition

	// Method is OutputMethod parsed.
	Method output.Method
}

// Load reads the configuration at c.Path with overrides applied, keeping
// the logger. After a successful load c.Path names the file that was read.
func (c *Config) Load(overrides map[string]interface{}) error {
	loaded, err := Load(c.Path, overrides)
	if err != nil {
		return err
	}
	c.Path = loaded.Path
	c.Definition = loaded.Definition
	c.Method = loaded.Method
	return nil
}

// envKeys maps environment variable names (without EnvPrefix) to
// configuration keys.
var envKeys = map[string]string{
	"PROJECT_ID":                         "projectId",
	"OUTPUT_METHOD":                      "outputMethod",
	"OUTPUT_DIR":                         "outputDir",
	"EXISTING_STORE_PATH":                "existingStorePath",
	"STORE_PASSWORD":                     "storePassword",
	"STORE_TYPE":                         "storeType",
	"SKIP_EXECUTION":                     "skipExecution",
	"STORE__TYPE":                        "store.type",
	"STORE__CREDENTIALS_FILE":            "store.credentialsFile",
	"STORE__IMPERSONATE_SERVICE_ACCOUNT": "store.impersonateServiceAccount",
	"STORE__ENDPOINT":                    "store.endpoint",
	"STORE__REGION":                      "store.region",
	"STORE__PROFILE":                     "store.profile",
	"STORE__ACCESS_KEY_ID":               "store.accessKeyId",
	"STORE__SECRET_ACCESS_KEY":           "store.secretAccessKey",
	"STORE__ASSUME_ROLE":                 "store.assumeRole",
	"STORE__EXTERNAL_ID":                 "store.externalId",
	"STORE__VAULT_URL":                   "store.vaultUrl",
	"STORE__TENANT_ID":                   "store.tenantId",
	"STORE__CLIENT_ID":                   "store.clientId",
	"STORE__CLIENT_SECRET":               "store.clientSecret",
	"STORE__USE_MANAGED_IDENTITY":        "store.useManagedIdentity",
	"STORE__USER_ASSIGNED_ID":            "store.userAssignedId",
}

var boolKeys = map[string]bool{
	"skipExecution":            true,
	"store.useManagedIdentity": true,
}

// Load merges the configuration file at path (if any), SMPULL_* environment
// variables and overrides, in increasing order of precedence. overrides use
// dotted configuration keys, e.g. "store.type". An empty path looks for
// DefaultFiles in the working directory; a missing default file is not an
// error.
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	if resolved != "" {
		parser, err := parserFor(resolved)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(resolved), parser); err != nil {
			return nil, dserrors.ConfigError{
				Field:      "path",
				Value:      resolved,
				Message:    fmt.Sprintf("failed to parse configuration file: %v", err),
				Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
			}
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("error loading config from env: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading config overrides: %w", err)
		}
	}

	if err := validateSchema(k.Raw()); err != nil {
		return nil, err
	}

	var def Definition
	if err := k.UnmarshalWithConf("", &def, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, dserrors.ConfigError{
			Message:    fmt.Sprintf("invalid configuration: %v", err),
			Suggestion: "Compare your configuration with the documented format",
		}
	}

	cfg := &Config{Path: resolved, Definition: &def}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", dserrors.ConfigError{
					Field:      "path",
					Value:      path,
					Message:    "configuration file not found",
					Suggestion: "Create smpull.yaml or pass the correct path with --config",
				}
			}
			return "", dserrors.UserError{
				Message:    "Failed to read configuration file",
				Details:    err.Error(),
				Suggestion: "Check file permissions and path",
				Err:        err,
			}
		}
		return path, nil
	}

	for _, candidate := range DefaultFiles {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLParser(), nil
	case ".toml":
		return toml.Parser(), nil
	case ".json":
		return jsonParser{}, nil
	}
	return nil, dserrors.ConfigError{
		Field:      "path",
		Value:      path,
		Message:    "unsupported configuration file format",
		Suggestion: "Use a .yaml, .yml, .toml or .json file",
	}
}

func envValue(name, value string) (string, interface{}) {
	key, ok := envKeys[strings.TrimPrefix(name, EnvPrefix)]
	if !ok {
		return "", nil
	}
	if boolKeys[key] {
		if b, err := strconv.ParseBool(value); err == nil {
			return key, b
		}
	}
	return key, value
}

func validateSchema(raw map[string]interface{}) error {
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return dserrors.ConfigError{
			Message:    "schema validation failed:\n  - " + strings.Join(errorMessages, "\n  - "),
			Suggestion: "projectId and mappings are required; every mapping needs a key and a property",
		}
	}
	return nil
}

// validate checks the values the schema cannot express and fills in
// defaults.
func (c *Config) validate() error {
	def := c.Definition

	method, err := output.ParseMethod(def.OutputMethod)
	if err != nil {
		return dserrors.ConfigError{
			Field:      "outputMethod",
			Value:      def.OutputMethod,
			Message:    err.Error(),
			Suggestion: "Use one of: " + strings.Join(output.MethodNames(), ", "),
		}
	}
	c.Method = method

	if _, err := truststore.NormalizeType(def.StoreType); err != nil {
		return dserrors.ConfigError{
			Field:      "storeType",
			Value:      def.StoreType,
			Message:    err.Error(),
			Suggestion: "Use PKCS12 or JKS",
		}
	}

	if def.Store.Type == "" {
		def.Store.Type = secretstore.TypeGCP
	}
	if def.OutputDir == "" {
		def.OutputDir = "."
	}
	return nil
}

// Keys returns every secret key referenced by the configuration, flat
// mappings first.
func (d *Definition) Keys() []string {
	return append(mapping.Keys(d.Mappings), mapping.ComplexKeys(d.ComplexMappings)...)
}
