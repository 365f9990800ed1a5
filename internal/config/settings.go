package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	gwerrors "github.com/alexisbeaulieu97/groundwork/pkg/errors"
)

// Well-known configuration keys.
const (
	KeyAppName = "APP_NAME"
	KeyAppPath = "APP_PATH"
	KeyStrict  = "GROUNDWORK_STRICT"
	KeyLogging = "GROUNDWORK_LOGGING"
	KeyPlugins = "PLUGINS"
	// KeyManifests lists plugin manifest files used for class discovery.
	KeyManifests = "PLUGIN_MANIFESTS"
)

// Settings holds the configuration parameters of an application.
type Settings struct {
	mu     sync.RWMutex
	values map[string]any
	files  []string
}

// NewSettings returns empty settings.
func NewSettings() *Settings {
	return &Settings{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *Settings) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// String returns key as a string, or fallback when unset.
func (s *Settings) String(key, fallback string) string {
	value, ok := s.Get(key)
	if !ok || value == nil {
		return fallback
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprint(value)
}

// Bool returns key as a bool. ok is false when unset or not a boolean.
func (s *Settings) Bool(key string) (value bool, ok bool) {
	raw, found := s.Get(key)
	if !found {
		return false, false
	}
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return false, false
	}
}

// Strings returns key as a list of strings.
func (s *Settings) Strings(key string) []string {
	raw, ok := s.Get(key)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return strings.Fields(strings.ReplaceAll(v, ",", " "))
	default:
		return nil
	}
}

// Set stores value under key. An existing key is only replaced when overwrite is true.
func (s *Settings) Set(key string, value any, overwrite bool) error {
	if !IsSettingKey(key) {
		return gwerrors.NewValidationError(key, "configuration keys must be uppercase", nil)
	}
	if _, reserved := reservedKeys[key]; reserved {
		return gwerrors.NewValidationError(key, fmt.Sprintf("%s is not allowed as name for a configuration parameter", key), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.values[key]; exists && !overwrite {
		return fmt.Errorf("configuration parameter %s exists and overwrite not allowed", key)
	}
	s.values[key] = value
	return nil
}

// Keys returns the configured keys sorted.
func (s *Settings) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Files returns the absolute paths of the loaded files in load order.
func (s *Settings) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.files...)
}

// Decode copies the structured value under key into target and validates it.
// A missing key leaves target untouched.
func (s *Settings) Decode(key string, target any) error {
	raw, ok := s.Get(key)
	if !ok || raw == nil {
		return ValidateStruct(key, target)
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return gwerrors.NewValidationError(strings.ToLower(key), err.Error(), err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return gwerrors.NewValidationError(strings.ToLower(key), err.Error(), err)
	}
	return ValidateStruct(key, target)
}

// Logging configures the application logger.
type Logging struct {
	Level         string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	HumanReadable bool   `yaml:"human_readable"`
}

// Logging decodes the GROUNDWORK_LOGGING section.
func (s *Settings) Logging() (Logging, error) {
	var logging Logging
	if err := s.Decode(KeyLogging, &logging); err != nil {
		return Logging{}, err
	}
	return logging, nil
}
