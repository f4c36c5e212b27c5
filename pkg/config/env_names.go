package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without tags.
const EnvPrefix = "FEEDBACKD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "FEEDBACKD_APP_ENV"
	EnvPort   = "FEEDBACKD_APP_PORT"

	EnvDBDSN  = "FEEDBACKD_DB_DSN"
	EnvDBHost = "FEEDBACKD_DB_HOST"
	EnvDBUser = "FEEDBACKD_DB_USER"
	EnvDBName = "FEEDBACKD_DB_NAME"

	EnvRedisURL = "FEEDBACKD_REDIS_URL"

	EnvGCPProjectID = "FEEDBACKD_GCP_PROJECT_ID"

	EnvPubSubOccurrencesTopic = "FEEDBACKD_PUBSUB_OCCURRENCES_TOPIC"
	EnvPubSubOutcomesTopic    = "FEEDBACKD_PUBSUB_OUTCOMES_TOPIC"
	EnvPubSubIntakeTopic      = "FEEDBACKD_PUBSUB_INTAKE_TOPIC"
	EnvPubSubIntakeSub        = "FEEDBACKD_PUBSUB_INTAKE_SUBSCRIPTION"

	EnvClassifierBaseURL = "FEEDBACKD_CLASSIFIER_BASE_URL"
	EnvClassifierAPIKey  = "FEEDBACKD_CLASSIFIER_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
