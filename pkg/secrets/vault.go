package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"npc-chatlab/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

// Common errors
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// VaultConfig holds configuration for the Vault client
type VaultConfig struct {
	Address     string
	Token       string
	Namespace   string
	Timeout     time.Duration
	MaxRetries  int
	SecretsPath string
	Enabled     bool
}

// Manager resolves secrets from HashiCorp Vault with an environment
// fallback, so local development works without a Vault deployment.
type Manager struct {
	client *vault.Client
	config VaultConfig
	cache  map[string]string
	mu     sync.RWMutex
	log    *logger.Logger
}

// NewManager creates a secrets manager from VAULT_* environment
// variables. When Vault is disabled every lookup falls back to the
// environment.
func NewManager(log *logger.Logger) (*Manager, error) {
	config := VaultConfig{
		Address:     os.Getenv("VAULT_ADDR"),
		Token:       os.Getenv("VAULT_TOKEN"),
		Namespace:   os.Getenv("VAULT_NAMESPACE"),
		SecretsPath: os.Getenv("VAULT_SECRETS_PATH"),
		Timeout:     10 * time.Second,
		MaxRetries:  3,
	}
	config.Enabled = os.Getenv("VAULT_ENABLED") == "true" || os.Getenv("VAULT_ENABLED") == "1"

	manager := &Manager{
		config: config,
		cache:  make(map[string]string),
		log:    log,
	}

	if !config.Enabled {
		return manager, nil
	}

	if config.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if config.Token == "" {
		return nil, ErrNoVaultToken
	}
	if config.SecretsPath == "" {
		config.SecretsPath = "secret/data/npc-chatlab"
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = config.Address
	vaultConfig.Timeout = config.Timeout
	vaultConfig.MaxRetries = config.MaxRetries

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(config.Token)
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	manager.client = client
	manager.config = config
	return manager, nil
}

// GetSecret resolves a key from Vault, falling back to the environment
// variable of the same name. Resolved values are cached for the
// process lifetime.
func (m *Manager) GetSecret(key string) (string, error) {
	m.mu.RLock()
	if value, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		return value, nil
	}
	m.mu.RUnlock()

	if m.client != nil {
		value, err := m.readFromVault(key)
		if err == nil {
			m.store(key, value)
			return value, nil
		}
		m.log.Warn("vault lookup failed, falling back to environment",
			"key", key,
			"error", err.Error(),
		)
	}

	if value := os.Getenv(key); value != "" {
		m.store(key, value)
		return value, nil
	}

	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
}

func (m *Manager) readFromVault(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.Timeout)
	defer cancel()

	secret, err := m.client.Logical().ReadWithContext(ctx, m.config.SecretsPath)
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	// KV v2 nests the payload under "data"
	data := secret.Data
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		data = nested
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func (m *Manager) store(key, value string) {
	m.mu.Lock()
	m.cache[key] = value
	m.mu.Unlock()
}
