package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	UploadDir    string // Base path for stored attachments
	JWTSecret    string

	// Shared role-elevation passphrases kept for migration compatibility.
	// Disabled unless EnablePassphraseLogin is set; see the admin role
	// endpoints for the supported way to grant roles.
	EnablePassphraseLogin bool
	TeacherPassphrase     string
	CreatorPassphrase     string

	// RestrictSingletonEdits gates shared-content edits (current book, site
	// settings, word of the day) to teacher/creator instead of everyone.
	RestrictSingletonEdits bool

	RetentionCron    string // cron expression for the history pruning job
	ChatHistoryLimit int    // rows of chat and activity log history retained
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	limitStr := getEnv("CHAT_HISTORY_LIMIT", "100")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:             port,
		DatabasePath:           getEnv("DATABASE_PATH", "./portal.db"),
		UploadDir:              getEnv("UPLOAD_DIR", "./uploads"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		EnablePassphraseLogin:  getEnv("ENABLE_PASSPHRASE_LOGIN", "false") == "true",
		TeacherPassphrase:      getEnv("TEACHER_PASSPHRASE", ""),
		CreatorPassphrase:      getEnv("CREATOR_PASSPHRASE", ""),
		RestrictSingletonEdits: getEnv("RESTRICT_SINGLETON_EDITS", "false") == "true",
		RetentionCron:          getEnv("RETENTION_CRON", "0 4 * * *"),
		ChatHistoryLimit:       limit,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
