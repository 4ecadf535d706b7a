package main

import (
	"os"

	"github.com/fieldstudies/import-backend/pkg/db"
	"github.com/fieldstudies/import-backend/pkg/notifications"
	"github.com/fieldstudies/import-backend/pkg/objectstore"
	"github.com/fieldstudies/import-backend/pkg/sourceclient"
	"github.com/fieldstudies/import-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_SURVEY_DB_USERNAME   = "SURVEY_DB_USERNAME"
	ENV_SURVEY_DB_PASSWORD   = "SURVEY_DB_PASSWORD"
	ENV_PII_DB_USERNAME      = "PII_DB_USERNAME"
	ENV_PII_DB_PASSWORD      = "PII_DB_PASSWORD"
	ENV_IMPORTER_DB_USERNAME = "IMPORTER_DB_USERNAME"
	ENV_IMPORTER_DB_PASSWORD = "IMPORTER_DB_PASSWORD"

	ENV_DOCUMENT_SOURCE_API_KEY = "DOCUMENT_SOURCE_API_KEY"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`
	} `json:"gin_config" yaml:"gin_config"`

	ApiKeys []string `json:"api_keys" yaml:"api_keys"`

	// DB configs
	DBConfigs struct {
		SurveyDB   db.DBConfigYaml `json:"survey_db" yaml:"survey_db"`
		PiiDB      db.DBConfigYaml `json:"pii_db" yaml:"pii_db"`
		ImporterDB db.DBConfigYaml `json:"importer_db" yaml:"importer_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Document source configs
	DocumentSource sourceclient.ClientConfig `json:"document_source" yaml:"document_source"`

	// Photo object storage
	PhotoStorage objectstore.PhotoStoreConfig `json:"photo_storage" yaml:"photo_storage"`

	// Feedback notification configs
	Notifications struct {
		FeedbackEmailsEnabled bool                              `json:"feedback_emails_enabled" yaml:"feedback_emails_enabled"`
		SMTPServerConfigPath  string                            `json:"smtp_server_config_path" yaml:"smtp_server_config_path"`
		FeedbackEmail         notifications.FeedbackEmailConfig `json:"feedback_email" yaml:"feedback_email"`
	} `json:"notifications" yaml:"notifications"`
}

var conf config

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(conf.Logging)

	// Override secrets from environment variables
	secretsOverride()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_SURVEY_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.SurveyDB.Username = dbUsername
	}
	if dbPassword := os.Getenv(ENV_SURVEY_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.SurveyDB.Password = dbPassword
	}

	if dbUsername := os.Getenv(ENV_PII_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.PiiDB.Username = dbUsername
	}
	if dbPassword := os.Getenv(ENV_PII_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.PiiDB.Password = dbPassword
	}

	if dbUsername := os.Getenv(ENV_IMPORTER_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.ImporterDB.Username = dbUsername
	}
	if dbPassword := os.Getenv(ENV_IMPORTER_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.ImporterDB.Password = dbPassword
	}

	if apiKey := os.Getenv(ENV_DOCUMENT_SOURCE_API_KEY); apiKey != "" {
		conf.DocumentSource.APIKey = apiKey
	}
}
