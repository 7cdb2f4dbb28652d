package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported STATE_BACKEND values.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendBadger   = "badger"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DiscordToken       string
	DiscordChannelID   string
	DiscordChannelName string
	DiscordGuildID     string

	TelegramToken        string
	TelegramMirrorChatID int64

	StateBackend string
	StateFile    string
	DatabaseURL  string
	SQLitePath   string
	BadgerDir    string

	LogLevel    string
	Environment string

	ServeCronSpec string
	RunTimeout    time.Duration

	Location          *time.Location
	AnchorWeekday     time.Weekday
	RecruitWeekday    time.Weekday
	RecruitHour       int
	ReminderWeekdays  []time.Weekday
	ReminderHourStart int
	ReminderHourEnd   int
	DayBeforeHour     int
	DayOfHour         int

	CommandReset       string
	CommandForceOpen   string
	CommandForceRemind string
	CommandForceCancel string
	CommandScanLimit   int

	QuorumThreshold        int
	ExcludeSelfVote        bool
	ReplacePollOnForceOpen bool
	MessagesFile           string
	Mention                string
	EventName              string
	EventTime              string
}

// ChannelRef is the id when configured, else the channel name.
func (c *AppConfig) ChannelRef() string {
	if c.DiscordChannelID != "" {
		return c.DiscordChannelID
	}
	return c.DiscordChannelName
}

// MirrorEnabled reports whether announcements are copied to Telegram.
func (c *AppConfig) MirrorEnabled() bool {
	return c.TelegramToken != "" && c.TelegramMirrorChatID != 0
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DiscordToken = os.Getenv("DISCORD_BOT_TOKEN")
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is not set")
	}
	cfg.DiscordChannelID = os.Getenv("DISCORD_CHANNEL_ID")
	cfg.DiscordChannelName = getString("DISCORD_CHANNEL_NAME", "general")
	cfg.DiscordGuildID = os.Getenv("DISCORD_GUILD_ID")
	if cfg.DiscordChannelID == "" && cfg.DiscordGuildID == "" {
		return nil, fmt.Errorf("DISCORD_GUILD_ID is required when DISCORD_CHANNEL_ID is not set")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if raw := os.Getenv("TELEGRAM_MIRROR_CHAT_ID"); raw != "" {
		cfg.TelegramMirrorChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_MIRROR_CHAT_ID: %w", err)
		}
	}

	cfg.StateBackend = strings.ToLower(getString("STATE_BACKEND", BackendFile))
	cfg.StateFile = getString("STATE_FILE", "state.json")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLitePath = getString("SQLITE_PATH", "state.db")
	cfg.BadgerDir = getString("BADGER_DIR", "state.badger")
	switch cfg.StateBackend {
	case BackendFile, BackendSQLite, BackendBadger:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
	}

	cfg.LogLevel = strings.ToLower(getString("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getString("ENVIRONMENT", "development"))

	cfg.ServeCronSpec = getString("SERVE_CRON_SPEC", "*/10 * * * *")
	if cfg.RunTimeout, err = getDuration("RUN_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}

	if cfg.Location, err = getLocation("TZ_OFFSET_HOURS", 9); err != nil {
		return nil, err
	}
	if cfg.AnchorWeekday, err = getWeekday("ANCHOR_WEEKDAY", time.Tuesday); err != nil {
		return nil, err
	}
	if cfg.RecruitWeekday, err = getWeekday("RECRUIT_WEEKDAY", time.Friday); err != nil {
		return nil, err
	}
	if cfg.RecruitHour, err = getHour("RECRUIT_HOUR", 21); err != nil {
		return nil, err
	}
	if cfg.ReminderWeekdays, err = getWeekdays("REMINDER_WEEKDAYS", []time.Weekday{time.Saturday, time.Sunday}); err != nil {
		return nil, err
	}
	if cfg.ReminderHourStart, err = getHour("REMINDER_HOUR_START", 21); err != nil {
		return nil, err
	}
	if cfg.ReminderHourEnd, err = getInt("REMINDER_HOUR_END", 24); err != nil {
		return nil, err
	}
	if cfg.ReminderHourEnd <= cfg.ReminderHourStart || cfg.ReminderHourEnd > 24 {
		return nil, fmt.Errorf("invalid reminder window [%d, %d)", cfg.ReminderHourStart, cfg.ReminderHourEnd)
	}
	if cfg.DayBeforeHour, err = getHour("DAY_BEFORE_HOUR", 20); err != nil {
		return nil, err
	}
	if cfg.DayOfHour, err = getHour("DAY_OF_HOUR", 12); err != nil {
		return nil, err
	}

	cfg.CommandReset = getString("COMMAND_RESET", "!reset")
	cfg.CommandForceOpen = getString("COMMAND_FORCE_OPEN", "!post")
	cfg.CommandForceRemind = getString("COMMAND_FORCE_REMIND", "!remind")
	cfg.CommandForceCancel = getString("COMMAND_FORCE_CANCEL", "!cancel")
	if cfg.CommandScanLimit, err = getInt("COMMAND_SCAN_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.CommandScanLimit <= 0 || cfg.CommandScanLimit > 100 {
		return nil, fmt.Errorf("COMMAND_SCAN_LIMIT must be in 1..100, got %d", cfg.CommandScanLimit)
	}

	if cfg.QuorumThreshold, err = getInt("QUORUM_THRESHOLD", 8); err != nil {
		return nil, err
	}
	if cfg.QuorumThreshold <= 0 {
		return nil, fmt.Errorf("QUORUM_THRESHOLD must be positive, got %d", cfg.QuorumThreshold)
	}
	if cfg.ExcludeSelfVote, err = getBool("EXCLUDE_SELF_VOTE", true); err != nil {
		return nil, err
	}

	switch policy := strings.ToLower(getString("FORCE_OPEN_WHILE_GATHERING", "ignore")); policy {
	case "ignore":
	case "replace":
		cfg.ReplacePollOnForceOpen = true
	default:
		return nil, fmt.Errorf("invalid FORCE_OPEN_WHILE_GATHERING %q", policy)
	}

	cfg.MessagesFile = os.Getenv("MESSAGES_FILE")
	cfg.Mention = getString("MENTION", "@everyone")
	cfg.EventName = getString("EVENT_NAME", "零式消化")
	cfg.EventTime = getString("EVENT_TIME", "21:00")

	return cfg, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getHour(key string, def int) (int, error) {
	h, err := getInt(key, def)
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid %s: hour %d out of range", key, h)
	}
	return h, nil
}

func getBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// getLocation builds a fixed zone from an hour offset, e.g. 9 for UTC+9.
func getLocation(key string, defOffset int) (*time.Location, error) {
	offset, err := getInt(key, defOffset)
	if err != nil {
		return nil, err
	}
	if offset < -12 || offset > 14 {
		return nil, fmt.Errorf("invalid %s: offset %d out of range", key, offset)
	}
	name := fmt.Sprintf("UTC%+d", offset)
	if offset == 9 {
		name = "JST"
	}
	return time.FixedZone(name, offset*60*60), nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts english names ("fri", "Friday") or 0-6 with Sunday = 0.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdayNames[s]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func getWeekday(key string, def time.Weekday) (time.Weekday, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := ParseWeekday(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getWeekdays(key string, def []time.Weekday) ([]time.Weekday, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		d, err := ParseWeekday(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		days = append(days, d)
	}
	return days, nil
}
