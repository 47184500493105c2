package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/rundown/server/timezone"
)

const (
	// CalendarStore keeps events in the SQL database selected by Driver.
	CalendarStore = "store"
	// CalendarICS keeps events in a single .ics file at ICSPath.
	CalendarICS = "ics"
)

// Profile is the configuration to start the RunDown server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where rundown stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the public base URL used for event links.
	InstanceURL string

	// Timezone is the IANA name all scheduling is performed in.
	Timezone string

	// Calendar is the calendar backend: "store" or "ics".
	Calendar string
	// ICSPath is the calendar file used when Calendar is "ics".
	ICSPath string
	// MailboxPath is the YAML mailbox fixture scanned by ingestion.
	MailboxPath string

	// IngestSchedule is the cron spec for mailbox ingestion. Empty disables it.
	IngestSchedule string
	// IngestDays is the mailbox look-back window in days.
	IngestDays int
	// Interests filters ingested mail by keyword; empty accepts everything.
	Interests []string

	// LLM configuration
	LLMProvider string // RUNDOWN_LLM_PROVIDER (default: deepseek)
	LLMBaseURL  string // RUNDOWN_LLM_BASE_URL
	LLMAPIKey   string // RUNDOWN_LLM_API_KEY
	LLMModel    string // RUNDOWN_LLM_MODEL (default: deepseek-chat)

	// SessionSecret signs chat session tokens.
	SessionSecret string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled reports whether a completion backend is configured.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv fills LLM settings left empty by flags from RUNDOWN_* environment variables.
func (p *Profile) FromEnv() {
	if p.LLMProvider == "" {
		p.LLMProvider = getEnvOrDefault("RUNDOWN_LLM_PROVIDER", "deepseek")
	}
	if p.LLMAPIKey == "" {
		p.LLMAPIKey = os.Getenv("RUNDOWN_LLM_API_KEY")
	}
	if p.LLMModel == "" {
		p.LLMModel = getEnvOrDefault("RUNDOWN_LLM_MODEL", defaultModel(p.LLMProvider))
	}
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = getEnvOrDefault("RUNDOWN_LLM_BASE_URL", defaultBaseURL(p.LLMProvider))
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "ollama":
		return "llama3.1"
	default:
		return "deepseek-chat"
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "openai":
		return "https://api.openai.com/v1"
	case "ollama":
		return "http://localhost:11434/v1"
	default:
		return "https://api.deepseek.com"
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "rundown")
		} else {
			p.Data = "/var/opt/rundown"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("rundown_%s.db", p.Mode))
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if _, err := timezone.Load(p.Timezone); err != nil {
		return errors.Wrap(err, "invalid timezone")
	}

	if p.Calendar == "" {
		p.Calendar = CalendarStore
	}
	switch p.Calendar {
	case CalendarStore:
	case CalendarICS:
		if p.ICSPath == "" {
			p.ICSPath = filepath.Join(dataDir, "calendar.ics")
		}
	default:
		return errors.Errorf("unsupported calendar backend %q", p.Calendar)
	}

	if p.InstanceURL == "" {
		host := p.Addr
		if host == "" {
			host = "localhost"
		}
		p.InstanceURL = fmt.Sprintf("http://%s:%d", host, p.Port)
	}
	p.InstanceURL = strings.TrimRight(p.InstanceURL, "/")

	if p.IngestDays <= 0 {
		p.IngestDays = 3
	}
	p.Interests = normalizeInterests(p.Interests)

	if p.SessionSecret == "" {
		if p.Mode == "prod" {
			return errors.New("session secret is required in prod mode")
		}
		p.SessionSecret = "rundown-" + p.Mode
	}

	return nil
}

// normalizeInterests lower-cases, trims and drops empty keywords. A single
// comma-separated entry (as produced by an env var) is split.
func normalizeInterests(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
