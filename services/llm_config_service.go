package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reasoning_backend/config"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/platform/cache"
)

var ErrEmptyUserID = errors.New("userID cannot be empty")

// LLMConfig is the oracle profile a user solves with.
type LLMConfig struct {
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	UserID   string `json:"user_id"`
}

// MarshalBinary lets redis store the profile directly.
func (c *LLMConfig) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}

func (c *LLMConfig) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, c)
}

// LLMConfigService keeps per-user oracle profiles in the cache and falls back to
// the server's own provider settings.
type LLMConfigService struct {
	typedCache *cache.TypedCache[LLMConfig]
	cacheTTL   time.Duration
	defaults   LLMConfig
	keyFor     func(provider string) string
}

func NewLLMConfigService(cacheService cache.CacheService, cfg *config.Config) *LLMConfigService {
	return &LLMConfigService{
		typedCache: cache.NewTypedCache[LLMConfig](cacheService),
		cacheTTL:   30 * time.Minute,
		defaults: LLMConfig{
			Provider: cfg.LLMProvider,
			Model:    cfg.LLMModel,
		},
		keyFor: cfg.APIKeyFor,
	}
}

func (s *LLMConfigService) SetUserLLMConfig(ctx context.Context, userID string, config *LLMConfig) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	config.UserID = userID
	return s.typedCache.Set(s.getCacheKey(userID), *config, s.cacheTTL)
}

// GetUserLLMConfig returns the stored profile, or nil when the user has none.
func (s *LLMConfigService) GetUserLLMConfig(ctx context.Context, userID string) (*LLMConfig, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	config, exists, err := s.typedCache.Get(s.getCacheKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM config for user %s: %w", userID, err)
	}
	if !exists {
		return nil, nil
	}
	return &config, nil
}

// GetOrUseDefault resolves the profile for one request. Request fields win over
// the stored profile, which wins over the server defaults. A complete profile in
// the request is remembered for the user.
func (s *LLMConfigService) GetOrUseDefault(ctx context.Context, userID, apiKey, model, provider string) (*LLMConfig, error) {
	if userID != "" && apiKey != "" && model != "" && provider != "" {
		config := &LLMConfig{APIKey: apiKey, Model: model, Provider: provider}
		if err := s.SetUserLLMConfig(ctx, userID, config); err != nil {
			logging.Logger.Warn("fail SetUserLLMConfig", "userID", userID, "error", err)
		}
		return config, nil
	}

	resolved := s.defaults
	resolved.UserID = userID
	if userID != "" {
		stored, err := s.GetUserLLMConfig(ctx, userID)
		if err != nil {
			logging.Logger.Warn("fail GetUserLLMConfig", "userID", userID, "error", err)
		} else if stored != nil {
			resolved = *stored
		}
	}
	if provider != "" {
		resolved.Provider = provider
	}
	if model != "" {
		resolved.Model = model
	}
	if apiKey != "" {
		resolved.APIKey = apiKey
	}
	if resolved.APIKey == "" {
		resolved.APIKey = s.keyFor(resolved.Provider)
	}
	if resolved.Provider == "" || resolved.Model == "" {
		return nil, fmt.Errorf("no LLM config provided and no default configured for user %s", userID)
	}
	return &resolved, nil
}

func (s *LLMConfigService) DeleteUserLLMConfig(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	return s.typedCache.Delete(s.getCacheKey(userID))
}

// RefreshTTL pushes the expiry of a stored profile forward.
func (s *LLMConfigService) RefreshTTL(ctx context.Context, userID string) error {
	config, err := s.GetUserLLMConfig(ctx, userID)
	if err != nil {
		return err
	}
	if config == nil {
		return fmt.Errorf("LLM config not found for user %s", userID)
	}
	return s.SetUserLLMConfig(ctx, userID, config)
}

func (s *LLMConfigService) getCacheKey(userID string) string {
	return fmt.Sprintf("llm_config:user:%s", userID)
}

// MaskAPIKey hides most of an API key for logs and responses.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:4] + "***" + apiKey[len(apiKey)-4:]
}
