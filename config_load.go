package restclient

import (
	"fmt"
	"maps"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ConfigurationFromEnv.
const EnvPrefix = "RESTCLIENT_"

// settings is the serializable view of Configuration shared by the
// environment and file loaders.
type settings struct {
	Host                       string             `yaml:"host" env:"HOST"`
	APIPath                    string             `yaml:"api_path" env:"API_PATH"`
	RequestSerializer          RequestSerializer  `yaml:"request_serializer" env:"REQUEST_SERIALIZER"`
	ResponseSerializer         ResponseSerializer `yaml:"response_serializer" env:"RESPONSE_SERIALIZER"`
	Timeout                    time.Duration      `yaml:"timeout" env:"TIMEOUT"`
	AcceptableContentTypes     []string           `yaml:"acceptable_content_types" env:"ACCEPTABLE_CONTENT_TYPES" envSeparator:","`
	HeaderParameters           map[string]string  `yaml:"headers" env:"HEADERS" envSeparator:"," envKeyValSeparator:"="`
	GlobalParameters           map[string]any     `yaml:"global_parameters"`
	GlobalParameterStrings     map[string]string  `yaml:"-" env:"GLOBAL_PARAMETERS" envSeparator:"," envKeyValSeparator:"="`
	AuthorizationHeader        string             `yaml:"authorization" env:"AUTHORIZATION"`
	CacheManagement            CacheManagement    `yaml:"cache_management" env:"CACHE_MANAGEMENT"`
	LogLevel                   LogLevel           `yaml:"log_level" env:"LOG_LEVEL"`
	InsertAcceptLanguageHeader bool               `yaml:"insert_accept_language_header" env:"INSERT_ACCEPT_LANGUAGE_HEADER"`
	InsertLanguageAsParameter  bool               `yaml:"insert_language_as_parameter" env:"INSERT_LANGUAGE_AS_PARAMETER"`
	LanguageParameterName      string             `yaml:"language_parameter_name" env:"LANGUAGE_PARAMETER_NAME"`
	Languages                  []string           `yaml:"languages" env:"LANGUAGES" envSeparator:","`
}

func settingsFrom(cfg *Configuration) settings {
	return settings{
		Host:                       cfg.Host,
		APIPath:                    cfg.APIPath,
		RequestSerializer:          cfg.RequestSerializer,
		ResponseSerializer:         cfg.ResponseSerializer,
		Timeout:                    cfg.Timeout,
		AcceptableContentTypes:     cfg.AcceptableContentTypes,
		HeaderParameters:           cfg.HeaderParameters,
		GlobalParameters:           cfg.GlobalParameters,
		AuthorizationHeader:        cfg.AuthorizationHeader,
		CacheManagement:            cfg.CacheManagement,
		LogLevel:                   cfg.LogLevel,
		InsertAcceptLanguageHeader: cfg.InsertAcceptLanguageHeader,
		InsertLanguageAsParameter:  cfg.InsertLanguageAsParameter,
		LanguageParameterName:      cfg.LanguageParameterName,
		Languages:                  cfg.Languages,
	}
}

func (s settings) configuration() *Configuration {
	cfg := DefaultConfiguration()
	cfg.Host = s.Host
	cfg.APIPath = s.APIPath
	cfg.RequestSerializer = s.RequestSerializer
	cfg.ResponseSerializer = s.ResponseSerializer
	cfg.Timeout = s.Timeout
	cfg.AcceptableContentTypes = s.AcceptableContentTypes
	cfg.HeaderParameters = s.HeaderParameters
	cfg.AuthorizationHeader = s.AuthorizationHeader
	cfg.CacheManagement = s.CacheManagement
	cfg.LogLevel = s.LogLevel
	cfg.InsertAcceptLanguageHeader = s.InsertAcceptLanguageHeader
	cfg.InsertLanguageAsParameter = s.InsertLanguageAsParameter
	cfg.LanguageParameterName = s.LanguageParameterName
	if len(s.Languages) > 0 {
		cfg.Languages = s.Languages
	}

	if len(s.GlobalParameters) > 0 || len(s.GlobalParameterStrings) > 0 {
		cfg.GlobalParameters = maps.Clone(s.GlobalParameters)
		if cfg.GlobalParameters == nil {
			cfg.GlobalParameters = make(map[string]any, len(s.GlobalParameterStrings))
		}
		for k, v := range s.GlobalParameterStrings {
			cfg.GlobalParameters[k] = v
		}
	}
	return cfg
}

// ConfigurationFromEnv builds a configuration from RESTCLIENT_* environment
// variables on top of DefaultConfiguration. Unset variables keep the default.
//
// Recognized variables: HOST, API_PATH, REQUEST_SERIALIZER (json|form),
// RESPONSE_SERIALIZER (json|raw), TIMEOUT (Go duration),
// ACCEPTABLE_CONTENT_TYPES, HEADERS (k=v,k=v), GLOBAL_PARAMETERS (k=v,k=v),
// AUTHORIZATION, CACHE_MANAGEMENT (default|offline), LOG_LEVEL,
// INSERT_ACCEPT_LANGUAGE_HEADER, INSERT_LANGUAGE_AS_PARAMETER,
// LANGUAGE_PARAMETER_NAME and LANGUAGES.
func ConfigurationFromEnv() (*Configuration, error) {
	s := settingsFrom(DefaultConfiguration())
	if err := env.ParseWithOptions(&s, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, configurationError("failed to parse environment", err)
	}
	return s.configuration(), nil
}

// ParseConfiguration decodes a YAML document on top of DefaultConfiguration.
func ParseConfiguration(data []byte) (*Configuration, error) {
	s := settingsFrom(DefaultConfiguration())
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, configurationError("failed to parse configuration", err)
	}
	return s.configuration(), nil
}

// LoadConfigurationFile reads a YAML configuration file.
func LoadConfigurationFile(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configurationError(fmt.Sprintf("failed to read %s", path), err)
	}
	return ParseConfiguration(data)
}
