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
	GCP          GCPConfig
	PubSub       PubSubConfig
	Classifier   ClassifierConfig
	FeatureFlags FeatureFlagsConfig
	Intake       IntakeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FEEDBACKD_APP_ENV" required:"true"`
	Port         string `envconfig:"FEEDBACKD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FEEDBACKD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FEEDBACKD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FEEDBACKD_DB_DSN"`
	Driver string `envconfig:"FEEDBACKD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FEEDBACKD_DB_HOST"`
	LegacyPort     int    `envconfig:"FEEDBACKD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FEEDBACKD_DB_USER"`
	LegacyPassword string `envconfig:"FEEDBACKD_DB_PASSWORD"`
	LegacyName     string `envconfig:"FEEDBACKD_DB_NAME"`
	LegacySSLMode  string `envconfig:"FEEDBACKD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FEEDBACKD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FEEDBACKD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FEEDBACKD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FEEDBACKD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FEEDBACKD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FEEDBACKD_REDIS_ADDR"`
	Password     string        `envconfig:"FEEDBACKD_REDIS_PASSWORD"`
	DB           int           `envconfig:"FEEDBACKD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FEEDBACKD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FEEDBACKD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FEEDBACKD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FEEDBACKD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FEEDBACKD_REDIS_WRITE_TIMEOUT" default:"5s"`

	DedupeTTL time.Duration `envconfig:"FEEDBACKD_REDIS_DEDUPE_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FEEDBACKD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FEEDBACKD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FEEDBACKD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OccurrencesTopic   string `envconfig:"FEEDBACKD_PUBSUB_OCCURRENCES_TOPIC" required:"true"`
	OutcomesTopic      string `envconfig:"FEEDBACKD_PUBSUB_OUTCOMES_TOPIC" required:"true"`
	IntakeTopic        string `envconfig:"FEEDBACKD_PUBSUB_INTAKE_TOPIC"`
	IntakeSubscription string `envconfig:"FEEDBACKD_PUBSUB_INTAKE_SUBSCRIPTION" required:"true"`
}

type ClassifierConfig struct {
	BaseURL string        `envconfig:"FEEDBACKD_CLASSIFIER_BASE_URL"`
	APIKey  string        `envconfig:"FEEDBACKD_CLASSIFIER_API_KEY"`
	Model   string        `envconfig:"FEEDBACKD_CLASSIFIER_MODEL" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"FEEDBACKD_CLASSIFIER_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FEEDBACKD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FEEDBACKD_AUTO_MIGRATE" default:"false"`
}

type IntakeConfig struct {
	MaxBodyBytes int64 `envconfig:"FEEDBACKD_INTAKE_MAX_BODY_BYTES" default:"1048576"`
}

func (db *DBConfig) ensureDSN() error {
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
