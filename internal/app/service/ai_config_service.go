package service

import (
	"strings"
	"sync"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/pkg/llm"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
)

// AIConfig 저장 키
const (
	configKeyProvider          = "ai_provider"
	configKeyOpenAIModelSmall  = "openai_model_small"
	configKeyOpenAIModelWriter = "openai_model_writer"
	configKeyGeminiModelSmall  = "gemini_model_small"
	configKeyGeminiModelWriter = "gemini_model_writer"
	configKeyGeminiSafety      = "gemini_safety"
)

// AISettings 프로세스 전역 AI 설정
type AISettings struct {
	Provider          string `json:"provider"`
	OpenAIModelSmall  string `json:"openai_model_small"`
	OpenAIModelWriter string `json:"openai_model_writer"`
	GeminiModelSmall  string `json:"gemini_model_small"`
	GeminiModelWriter string `json:"gemini_model_writer"`
	GeminiSafety      string `json:"gemini_safety"`
}

// Models 선택된 공급자의 small/writer 모델
func (s AISettings) Models() llm.Models {
	if s.Provider == llm.ProviderGemini {
		return llm.Models{Small: s.GeminiModelSmall, Writer: s.GeminiModelWriter}
	}
	return llm.Models{Small: s.OpenAIModelSmall, Writer: s.OpenAIModelWriter}
}

func (s AISettings) Safety() llm.Safety {
	return llm.ParseSafety(s.GeminiSafety)
}

// AISettingsUpdate 부분 갱신 (nil 필드는 유지)
type AISettingsUpdate struct {
	Provider          *string `json:"provider"`
	OpenAIModelSmall  *string `json:"openai_model_small"`
	OpenAIModelWriter *string `json:"openai_model_writer"`
	GeminiModelSmall  *string `json:"gemini_model_small"`
	GeminiModelWriter *string `json:"gemini_model_writer"`
	GeminiSafety      *string `json:"gemini_safety"`
}

type AIConfigService interface {
	Load() error
	Get() AISettings
	Update(update AISettingsUpdate) (AISettings, error)
	Active() (llm.Provider, AISettings, error)
}

type aiConfigService struct {
	repo     repository.AppConfigRepository
	registry *llm.Registry
	defaults AISettings

	mu       sync.RWMutex
	settings AISettings
}

func NewAIConfigService(repo repository.AppConfigRepository, registry *llm.Registry, cfg config.AIConfig) AIConfigService {
	defaults := AISettings{
		Provider:          cfg.DefaultProvider,
		OpenAIModelSmall:  cfg.OpenAIModelSmall,
		OpenAIModelWriter: cfg.OpenAIModelWriter,
		GeminiModelSmall:  cfg.GeminiModelSmall,
		GeminiModelWriter: cfg.GeminiModelWriter,
		GeminiSafety:      cfg.GeminiSafety,
	}
	return &aiConfigService{
		repo:     repo,
		registry: registry,
		defaults: defaults,
		settings: defaults,
	}
}

// Load 기본값 위에 저장된 값을 덮어쓴다 (저장된 값이 없으면 기본값으로 복귀)
func (s *aiConfigService) Load() error {
	values, err := s.repo.GetAll()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = applyConfigValues(s.defaults, values)

	logger.Info("AI config loaded", map[string]interface{}{
		"provider": s.settings.Provider,
		"stored":   len(values),
	})
	return nil
}

func applyConfigValues(base AISettings, values map[string]string) AISettings {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(values[key]); v != "" {
			*dst = v
		}
	}
	set(&base.Provider, configKeyProvider)
	set(&base.OpenAIModelSmall, configKeyOpenAIModelSmall)
	set(&base.OpenAIModelWriter, configKeyOpenAIModelWriter)
	set(&base.GeminiModelSmall, configKeyGeminiModelSmall)
	set(&base.GeminiModelWriter, configKeyGeminiModelWriter)
	set(&base.GeminiSafety, configKeyGeminiSafety)
	return base
}

func (s *aiConfigService) Get() AISettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update 검증 후 저장하고 메모리 설정을 교체
func (s *aiConfigService) Update(update AISettingsUpdate) (AISettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	values := map[string]string{}
	apply := func(dst *string, src *string, key string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		*dst = v
		values[key] = v
	}
	apply(&next.Provider, update.Provider, configKeyProvider)
	apply(&next.OpenAIModelSmall, update.OpenAIModelSmall, configKeyOpenAIModelSmall)
	apply(&next.OpenAIModelWriter, update.OpenAIModelWriter, configKeyOpenAIModelWriter)
	apply(&next.GeminiModelSmall, update.GeminiModelSmall, configKeyGeminiModelSmall)
	apply(&next.GeminiModelWriter, update.GeminiModelWriter, configKeyGeminiModelWriter)
	apply(&next.GeminiSafety, update.GeminiSafety, configKeyGeminiSafety)

	if err := s.validate(next); err != nil {
		logger.Warn("Rejected AI config update", map[string]interface{}{
			"error": err.Error(),
		})
		return s.settings, err
	}

	if err := s.repo.Upsert(values); err != nil {
		return s.settings, err
	}
	s.settings = next

	logger.Info("AI config updated", map[string]interface{}{
		"provider": next.Provider,
		"keys":     len(values),
	})
	return next, nil
}

func (s *aiConfigService) validate(settings AISettings) error {
	if _, err := s.registry.Get(settings.Provider); err != nil {
		return newValidationError(ErrInvalidAIConfig, "provider",
			"provider must be one of "+strings.Join(s.registry.Names(), ", "))
	}
	models := settings.Models()
	if models.Small == "" || models.Writer == "" {
		return newValidationError(ErrInvalidAIConfig, "model", "model names must not be empty")
	}
	switch llm.Safety(settings.GeminiSafety) {
	case llm.SafetyDefault, llm.SafetyLow, llm.SafetyNone:
	default:
		return newValidationError(ErrInvalidAIConfig, "gemini_safety", "safety must be default, low or none")
	}
	return nil
}

// Active 현재 선택된 공급자와 설정 스냅샷
func (s *aiConfigService) Active() (llm.Provider, AISettings, error) {
	settings := s.Get()
	provider, err := s.registry.Get(settings.Provider)
	if err != nil {
		return nil, settings, newValidationError(ErrInvalidAIConfig, "provider", err.Error())
	}
	return provider, settings, nil
}
