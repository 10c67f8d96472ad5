package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string
	// PublicHost is the externally reachable host used when building the
	// wss:// stream URL placed in TwiML. Empty means derive from the request.
	PublicHost string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	OpenAIKey   string
	OpenAIModel string
	Voice       string

	OpeningScript  string
	GeneralPrompt  string
	BusinessPrompt string
	ClosingScript  string
	Languages      []string

	IdleWarning  time.Duration
	IdleHangup   time.Duration
	MaxWarning   time.Duration
	MaxHangup    time.Duration
	ClosingGrace time.Duration

	VADThreshold float64
	VADPrefixMs  int
	VADSilenceMs int

	BargeInEnabled bool

	StatusWebhook  string
	CallLogWebhook string
}

// Load reads environment variables and returns Config with sane defaults.
// A missing OPENAI_API_KEY is fatal: no session can be negotiated without it.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Fatal("OPENAI_API_KEY not set - refusing to start")
	}

	if os.Getenv("TWILIO_ACCOUNT_SID") == "" || os.Getenv("TWILIO_AUTH_TOKEN") == "" {
		log.Println("Warning: TWILIO_ACCOUNT_SID / TWILIO_AUTH_TOKEN not set - outbound call placement will not work")
	}

	cfg := Config{
		HTTPAddress:      addr,
		PublicHost:       os.Getenv("PUBLIC_HOST"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		OpenAIKey:        openAIKey,
		OpenAIModel:      getEnv("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview"),
		Voice:            getEnv("OPENAI_VOICE", "alloy"),
		OpeningScript:    os.Getenv("OUTBOUND_OPENING_SCRIPT"),
		GeneralPrompt:    os.Getenv("OUTBOUND_GENERAL_PROMPT"),
		BusinessPrompt:   os.Getenv("OUTBOUND_BUSINESS_PROMPT"),
		ClosingScript:    os.Getenv("OUTBOUND_CLOSING_SCRIPT"),
		Languages:        splitList(getEnv("LANGUAGES", "en")),
		IdleWarning:      envMs("IDLE_WARNING_MS", 15000),
		IdleHangup:       envMs("IDLE_HANGUP_MS", 15000),
		MaxWarning:       envMs("MAX_CALL_WARNING_MS", 240000),
		MaxHangup:        envMs("MAX_CALL_MS", 300000),
		ClosingGrace:     envMs("CLOSING_GRACE_MS", 5000),
		VADThreshold:     envFloat("VAD_THRESHOLD", 0.5),
		VADPrefixMs:      envInt("VAD_PREFIX_MS", 300),
		VADSilenceMs:     envInt("VAD_SILENCE_MS", 600),
		BargeInEnabled:   envBool("BARGE_IN_ENABLED", true),
		StatusWebhook:    os.Getenv("OUTBOUND_STATUS_WEBHOOK_URL"),
		CallLogWebhook:   os.Getenv("CALL_LOG_WEBHOOK_URL"),
	}

	if cfg.OpeningScript == "" {
		log.Println("Warning: OUTBOUND_OPENING_SCRIPT not set - calls will open without a scripted line")
	}

	log.Printf("config: HTTP_ADDRESS=%s model=%s voice=%s languages=%v barge_in=%v",
		cfg.HTTPAddress, cfg.OpenAIModel, cfg.Voice, cfg.Languages, cfg.BargeInEnabled)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envMs(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Millisecond
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %g", key, v, def)
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a boolean, using %v", key, v, def)
		return def
	}
	return b
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
