package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/rundown/internal/profile"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "rundown",
	Short: "A natural-language scheduling assistant for your calendar",
	Long: `RunDown answers chat commands such as "@add lunch with Sam Friday noon",
"@check tomorrow" or "@suggest 45 minute review next Tuesday afternoon"
against a calendar, and turns actionable mail into events.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		setupLogger(viper.GetString("log-format"), viper.GetString("mode"))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver (sqlite or postgres)")
	flags.String("dsn", "", "database source name")
	flags.String("instance-url", "", "public base URL used in event links")
	flags.String("timezone", "UTC", "IANA timezone all scheduling happens in")
	flags.String("calendar", profile.CalendarStore, `calendar backend, "store" or "ics"`)
	flags.String("ics-path", "", "calendar file for the ics backend")
	flags.String("mailbox-path", "", "YAML mailbox scanned by ingestion")
	flags.String("ingest-schedule", "@every 50m", "cron spec for mailbox ingestion; empty disables it")
	flags.Int("ingest-days", 3, "mailbox look-back in days")
	flags.StringSlice("interests", nil, "keywords an email must contain to be ingested")
	flags.String("llm-provider", "", "completion provider (deepseek, openai, ollama)")
	flags.String("llm-base-url", "", "completion API base URL")
	flags.String("llm-api-key", "", "completion API key")
	flags.String("llm-model", "", "completion model")
	flags.String("session-secret", "", "secret signing chat session tokens")
	flags.String("log-format", "text", `log format, "text" or "json"`)

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("rundown")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, chatCmd, ingestCmd, tokenCmd)
	rootCmd.Version = version
}

// loadProfile builds and validates the profile from flags and RUNDOWN_* env.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:           viper.GetString("mode"),
		Addr:           viper.GetString("addr"),
		Port:           viper.GetInt("port"),
		Data:           viper.GetString("data"),
		Driver:         viper.GetString("driver"),
		DSN:            viper.GetString("dsn"),
		Version:        version,
		InstanceURL:    viper.GetString("instance-url"),
		Timezone:       viper.GetString("timezone"),
		Calendar:       viper.GetString("calendar"),
		ICSPath:        viper.GetString("ics-path"),
		MailboxPath:    viper.GetString("mailbox-path"),
		IngestSchedule: viper.GetString("ingest-schedule"),
		IngestDays:     viper.GetInt("ingest-days"),
		Interests:      viper.GetStringSlice("interests"),
		LLMProvider:    viper.GetString("llm-provider"),
		LLMBaseURL:     viper.GetString("llm-base-url"),
		LLMAPIKey:      viper.GetString("llm-api-key"),
		LLMModel:       viper.GetString("llm-model"),
		SessionSecret:  viper.GetString("session-secret"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, nil
}

func setupLogger(format, mode string) {
	level := slog.LevelInfo
	if mode == "dev" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
