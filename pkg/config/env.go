package config

// EnvPrefix is passed to envconfig; every field declares its full key explicitly.
const EnvPrefix = "HEAVEN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv           = "HEAVEN_APP_ENV"
	EnvPort             = "HEAVEN_APP_PORT"
	EnvDBDSN            = "HEAVEN_DB_DSN"
	EnvDBHost           = "HEAVEN_DB_HOST"
	EnvDBUser           = "HEAVEN_DB_USER"
	EnvDBName           = "HEAVEN_DB_NAME"
	EnvRedisURL         = "HEAVEN_REDIS_URL"
	EnvSupabaseURL      = "HEAVEN_SUPABASE_URL"
	EnvSupabaseSecret   = "HEAVEN_SUPABASE_JWT_SECRET"
	EnvAdminEmails      = "HEAVEN_ADMIN_EMAILS"
	EnvUseSQLite        = "HEAVEN_USE_SQLITE"
	EnvStripeAPIKey     = "HEAVEN_STRIPE_API_KEY"
	EnvGitHubPRTimeout  = "HEAVEN_GITHUB_PR_TIMEOUT"
	EnvStatsCacheTTL    = "HEAVEN_STATS_CACHE_TTL"
	EnvAdminRateWindow  = "HEAVEN_ADMIN_RATE_LIMIT_WINDOW"
	EnvAdminRateLimit   = "HEAVEN_ADMIN_RATE_LIMIT"
	EnvDocumentsTopic   = "HEAVEN_PUBSUB_DOCUMENTS_TOPIC"
	EnvGeminiAPIKey     = "HEAVEN_GEMINI_API_KEY"
	EnvBigQueryDataset  = "HEAVEN_BIGQUERY_DATASET"
	EnvConsoleBaseURL   = "HEAVEN_CONSOLE_BASE_URL"
	EnvConsoleToken     = "HEAVEN_CONSOLE_TOKEN"
	EnvConsoleTimeout   = "HEAVEN_CONSOLE_ACTION_TIMEOUT"
	EnvConsolePageSize  = "HEAVEN_CONSOLE_PAGE_SIZE"
	EnvConsoleSearchMod = "HEAVEN_CONSOLE_SEARCH_MODE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
