package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Supabase     SupabaseConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Gemini       GeminiConfig
	GitHub       GitHubConfig
	Mail         MailConfig
	Stats        StatsConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HEAVEN_APP_ENV" required:"true"`
	Port         string `envconfig:"HEAVEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HEAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HEAVEN_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"HEAVEN_LOG_FORMAT" default:"json"`
	PublicURL    string `envconfig:"HEAVEN_PUBLIC_URL" default:"https://landlordheaven.co.uk"`
	// Browser origins allowed to call the API; localhost is added in dev.
	CORSOrigins []string `envconfig:"HEAVEN_CORS_ORIGINS" default:"https://landlordheaven.co.uk,https://www.landlordheaven.co.uk,https://admin.landlordheaven.co.uk"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"HEAVEN_DB_DSN"`
	Driver     string `envconfig:"HEAVEN_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"HEAVEN_DB_SQLITE_PATH" default:"heaven.db"`

	LegacyHost     string `envconfig:"HEAVEN_DB_HOST"`
	LegacyPort     int    `envconfig:"HEAVEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HEAVEN_DB_USER"`
	LegacyPassword string `envconfig:"HEAVEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"HEAVEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"HEAVEN_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"HEAVEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HEAVEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HEAVEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HEAVEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"HEAVEN_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HEAVEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HEAVEN_REDIS_ADDR"`
	Password     string        `envconfig:"HEAVEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"HEAVEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HEAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HEAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HEAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HEAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HEAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SupabaseConfig holds the settings needed to verify Supabase Auth access tokens.
type SupabaseConfig struct {
	URL         string   `envconfig:"HEAVEN_SUPABASE_URL"`
	JWTSecret   string   `envconfig:"HEAVEN_SUPABASE_JWT_SECRET" required:"true"`
	Audience    string   `envconfig:"HEAVEN_SUPABASE_JWT_AUDIENCE" default:"authenticated"`
	AdminEmails []string `envconfig:"HEAVEN_ADMIN_EMAILS"`
}

// Issuer returns the expected token issuer, derived from the project URL.
func (s SupabaseConfig) Issuer() string {
	base := strings.TrimRight(strings.TrimSpace(s.URL), "/")
	if base == "" {
		return ""
	}
	return base + "/auth/v1"
}

// IsAdminEmail reports whether the email is on the configured admin allowlist.
func (s SupabaseConfig) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, candidate := range s.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(candidate), email) {
			return true
		}
	}
	return false
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HEAVEN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HEAVEN_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"HEAVEN_STRIPE_API_KEY"`
	Secret         string        `envconfig:"HEAVEN_STRIPE_SECRET"`
	Env            string        `envconfig:"HEAVEN_STRIPE_ENV" default:"test"`
	IdempotencyTTL time.Duration `envconfig:"HEAVEN_STRIPE_IDEMPOTENCY_TTL" default:"720h"`
	// WebhookTolerance bounds the age of a signed webhook delivery.
	WebhookTolerance time.Duration `envconfig:"HEAVEN_STRIPE_WEBHOOK_TOLERANCE" default:"5m"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HEAVEN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HEAVEN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HEAVEN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DocumentsTopic string `envconfig:"HEAVEN_PUBSUB_DOCUMENTS_TOPIC" default:"heaven-document-generation"`
}

// BigQueryConfig names the warehouse table payment outcomes are streamed to.
// An empty dataset turns the export off.
type BigQueryConfig struct {
	Dataset            string `envconfig:"HEAVEN_BIGQUERY_DATASET"`
	PaymentEventsTable string `envconfig:"HEAVEN_BIGQUERY_PAYMENT_EVENTS_TABLE" default:"payment_events"`
}

func (b BigQueryConfig) Enabled() bool {
	return strings.TrimSpace(b.Dataset) != ""
}

type GeminiConfig struct {
	APIKey string `envconfig:"HEAVEN_GEMINI_API_KEY"`
	Model  string `envconfig:"HEAVEN_GEMINI_MODEL" default:"gemini-2.5-flash"`
}

type GitHubConfig struct {
	Token      string        `envconfig:"HEAVEN_GITHUB_TOKEN"`
	Owner      string        `envconfig:"HEAVEN_GITHUB_OWNER"`
	Repo       string        `envconfig:"HEAVEN_GITHUB_REPO"`
	BaseBranch string        `envconfig:"HEAVEN_GITHUB_BASE_BRANCH" default:"main"`
	PRTimeout  time.Duration `envconfig:"HEAVEN_GITHUB_PR_TIMEOUT" default:"30s"`
}

// Enabled reports whether enough settings exist to open pull requests.
func (g GitHubConfig) Enabled() bool {
	return g.Token != "" && g.Owner != "" && g.Repo != ""
}

type MailConfig struct {
	Host     string `envconfig:"HEAVEN_SMTP_HOST"`
	Port     int    `envconfig:"HEAVEN_SMTP_PORT" default:"587"`
	Username string `envconfig:"HEAVEN_SMTP_USERNAME"`
	Password string `envconfig:"HEAVEN_SMTP_PASSWORD"`
	From     string `envconfig:"HEAVEN_SMTP_FROM" default:"orders@landlordheaven.co.uk"`
}

type StatsConfig struct {
	CacheTTL time.Duration `envconfig:"HEAVEN_STATS_CACHE_TTL" default:"30s"`
}

// RateLimitConfig bounds admin mutations per actor.
type RateLimitConfig struct {
	AdminWindow time.Duration `envconfig:"HEAVEN_ADMIN_RATE_LIMIT_WINDOW" default:"1m"`
	AdminLimit  int           `envconfig:"HEAVEN_ADMIN_RATE_LIMIT" default:"60"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
