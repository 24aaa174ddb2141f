package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
	"github.com/HammerMeetNail/birthdaysurprise/internal/paramstore"
)

var ErrInvalidSurpriseConfig = errors.New("invalid surprise config")

// SurpriseConfigSource yields a raw surprise document.
type SurpriseConfigSource interface {
	Name() string
	Fetch(ctx context.Context) (models.SurpriseConfig, error)
}

// SurpriseConfigProvider is what handlers and other services depend on.
type SurpriseConfigProvider interface {
	Get(ctx context.Context) models.SurpriseConfig
}

// FileConfigSource reads config.json / config.yaml from disk.
type FileConfigSource struct {
	Path string
}

func (s FileConfigSource) Name() string {
	return "file:" + s.Path
}

func (s FileConfigSource) Fetch(ctx context.Context) (models.SurpriseConfig, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return models.SurpriseConfig{}, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(s.Path)), ".")
	return DecodeSurpriseDocument(data, format)
}

// ParamConfigSource reads the document from an SSM parameter.
type ParamConfigSource struct {
	Params    paramstore.Getter
	Parameter string
}

func (s ParamConfigSource) Name() string {
	return "ssm:" + s.Parameter
}

func (s ParamConfigSource) Fetch(ctx context.Context) (models.SurpriseConfig, error) {
	value, err := s.Params.GetParameter(ctx, s.Parameter)
	if err != nil {
		return models.SurpriseConfig{}, err
	}
	return DecodeSurpriseDocument([]byte(value), "")
}

// DecodeSurpriseDocument parses and validates a document. format is "json",
// "yaml"/"yml", or empty to sniff: a leading '{' means JSON.
func DecodeSurpriseDocument(data []byte, format string) (models.SurpriseConfig, error) {
	var cfg models.SurpriseConfig
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return cfg, fmt.Errorf("%w: empty document", ErrInvalidSurpriseConfig)
	}
	if format == "" {
		format = "yaml"
		if trimmed[0] == '{' {
			format = "json"
		}
	}

	var err error
	switch format {
	case "json":
		err = json.Unmarshal(trimmed, &cfg)
	case "yaml", "yml":
		err = yaml.Unmarshal(trimmed, &cfg)
	default:
		return cfg, fmt.Errorf("%w: unsupported format %q", ErrInvalidSurpriseConfig, format)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidSurpriseConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidSurpriseConfig, err)
	}
	return cfg, nil
}

// SurpriseConfigService resolves the document from its sources in order,
// falling back to the built-in default. It never returns an error.
type SurpriseConfigService struct {
	sources []SurpriseConfigSource
	ttl     time.Duration
	logger  *logging.Logger
	now     func() time.Time

	mu        sync.Mutex
	cached    models.SurpriseConfig
	expiresAt time.Time
}

func NewSurpriseConfigService(sources []SurpriseConfigSource, ttl time.Duration, logger *logging.Logger) *SurpriseConfigService {
	if logger == nil {
		logger = logging.Default
	}
	return &SurpriseConfigService{
		sources: sources,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *SurpriseConfigService) Get(ctx context.Context) models.SurpriseConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.ttl > 0 && now.Before(s.expiresAt) {
		return s.cached
	}

	cfg := s.resolve(ctx, now)
	s.cached = cfg
	s.expiresAt = now.Add(s.ttl)
	return cfg
}

func (s *SurpriseConfigService) resolve(ctx context.Context, now time.Time) models.SurpriseConfig {
	for _, src := range s.sources {
		cfg, err := src.Fetch(ctx)
		if err == nil {
			return cfg
		}
		s.logger.Warn("Surprise config source unavailable", map[string]interface{}{
			"source": src.Name(),
			"error":  err.Error(),
		})
	}
	s.logger.Warn("Using built-in surprise config")
	return models.DefaultSurpriseConfig(now)
}
