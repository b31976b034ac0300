package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxEntries    int    `yaml:"max_entries"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// RemoteConfig holds the hosted synthesis provider settings. Whether the
// remote path is preferred is never stored: it is derived per request
// from APIKey presence, since credentials may change between calls.
type RemoteConfig struct {
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	VoiceID         string  `yaml:"voice_id"`
	ModelID         string  `yaml:"model_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Style           float64 `yaml:"style"`
	SpeakerBoost    bool    `yaml:"speaker_boost"`
	OutputFormat    string  `yaml:"output_format"`
	OptimizeLatency int     `yaml:"optimize_streaming_latency"`
	TimeoutMS       int     `yaml:"timeout_ms"`
}

type LocalConfig struct {
	Mode       string `yaml:"mode"` // mock, exec
	Command    string `yaml:"command"`
	Voice      string `yaml:"voice"`
	SampleRate int    `yaml:"sample_rate"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

// VoiceOverride carries per-character voice settings. Only fields present
// in the file override the process-level configuration.
type VoiceOverride struct {
	RemoteVoiceID         *string  `yaml:"remote_voice_id"`
	RemoteModelID         *string  `yaml:"remote_model_id"`
	RemoteStability       *float64 `yaml:"remote_stability"`
	RemoteSimilarityBoost *float64 `yaml:"remote_similarity_boost"`
	RemoteStyle           *float64 `yaml:"remote_style"`
	RemoteSpeakerBoost    *bool    `yaml:"remote_speaker_boost"`
	RemoteOutputFormat    *string  `yaml:"remote_output_format"`
	LocalVoice            *string  `yaml:"local_voice"`
}

type SpeechConfig struct {
	Remote RemoteConfig             `yaml:"remote"`
	Local  LocalConfig              `yaml:"local"`
	Voices map[string]VoiceOverride `yaml:"voices"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	History     HistoryConfig   `yaml:"history"`
	Speech      SpeechConfig    `yaml:"speech"`
}

func Default() Config {
	return Config{
		RuntimeName: "verba-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		History: HistoryConfig{
			Path:          "./data/verba-history.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxEntries:    10000,
		},
		Speech: SpeechConfig{
			Remote: RemoteConfig{
				BaseURL:         "https://api.elevenlabs.io",
				ModelID:         "eleven_multilingual_v2",
				Stability:       0.5,
				SimilarityBoost: 0.75,
				Style:           0,
				SpeakerBoost:    true,
				OutputFormat:    "mp3_44100_128",
				OptimizeLatency: 3,
				TimeoutMS:       30000,
			},
			Local: LocalConfig{
				Mode:       "mock",
				Voice:      "default",
				SampleRate: 22050,
				TimeoutMS:  45000,
			},
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "VERBA_RUNTIME_NAME")
	overrideString(&cfg.Environment, "VERBA_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "VERBA_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VERBA_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "VERBA_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VERBA_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VERBA_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "VERBA_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "VERBA_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VERBA_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VERBA_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "VERBA_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "VERBA_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "VERBA_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "VERBA_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "VERBA_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.History.Path, "VERBA_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "VERBA_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.RetentionDays, "VERBA_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxEntries, "VERBA_HISTORY_MAX_ENTRIES")
	overrideBool(&cfg.History.VacuumOnStart, "VERBA_HISTORY_VACUUM_ON_START")
	overrideString(&cfg.Speech.Remote.APIKey, "ELEVENLABS_API_KEY")
	overrideString(&cfg.Speech.Remote.APIKey, "VERBA_SPEECH_REMOTE_API_KEY")
	overrideString(&cfg.Speech.Remote.BaseURL, "VERBA_SPEECH_REMOTE_BASE_URL")
	overrideString(&cfg.Speech.Remote.VoiceID, "VERBA_SPEECH_REMOTE_VOICE_ID")
	overrideString(&cfg.Speech.Remote.ModelID, "VERBA_SPEECH_REMOTE_MODEL_ID")
	overrideFloat(&cfg.Speech.Remote.Stability, "VERBA_SPEECH_REMOTE_STABILITY")
	overrideFloat(&cfg.Speech.Remote.SimilarityBoost, "VERBA_SPEECH_REMOTE_SIMILARITY_BOOST")
	overrideFloat(&cfg.Speech.Remote.Style, "VERBA_SPEECH_REMOTE_STYLE")
	overrideBool(&cfg.Speech.Remote.SpeakerBoost, "VERBA_SPEECH_REMOTE_SPEAKER_BOOST")
	overrideString(&cfg.Speech.Remote.OutputFormat, "VERBA_SPEECH_REMOTE_OUTPUT_FORMAT")
	overrideInt(&cfg.Speech.Remote.OptimizeLatency, "VERBA_SPEECH_REMOTE_OPTIMIZE_LATENCY")
	overrideInt(&cfg.Speech.Remote.TimeoutMS, "VERBA_SPEECH_REMOTE_TIMEOUT_MS")
	overrideString(&cfg.Speech.Local.Mode, "VERBA_SPEECH_LOCAL_MODE")
	overrideString(&cfg.Speech.Local.Command, "VERBA_SPEECH_LOCAL_COMMAND")
	overrideString(&cfg.Speech.Local.Voice, "VERBA_SPEECH_LOCAL_VOICE")
	overrideInt(&cfg.Speech.Local.SampleRate, "VERBA_SPEECH_LOCAL_SAMPLE_RATE")
	overrideInt(&cfg.Speech.Local.TimeoutMS, "VERBA_SPEECH_LOCAL_TIMEOUT_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("history.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Speech.Remote.BaseURL == "" {
		return errors.New("speech.remote.base_url must not be empty")
	}
	if cfg.Speech.Remote.APIKey != "" && cfg.Speech.Remote.VoiceID == "" {
		return errors.New("speech.remote.voice_id must be set when an api key is configured")
	}
	switch cfg.Speech.Local.Mode {
	case "mock", "exec":
	default:
		return errors.New("speech.local.mode must be one of mock|exec")
	}
	if cfg.Speech.Local.Mode == "exec" && cfg.Speech.Local.Command == "" {
		return errors.New("speech.local.command must be set when mode=exec")
	}
	if cfg.Speech.Local.SampleRate <= 0 {
		return errors.New("speech.local.sample_rate must be positive")
	}
	return nil
}
