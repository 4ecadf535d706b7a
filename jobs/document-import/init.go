package main

import (
	"log/slog"
	"os"

	"github.com/fieldstudies/import-backend/pkg/db"
	"github.com/fieldstudies/import-backend/pkg/notifications"
	"github.com/fieldstudies/import-backend/pkg/objectstore"
	"github.com/fieldstudies/import-backend/pkg/sourceclient"
	"github.com/fieldstudies/import-backend/pkg/utils"
	"gopkg.in/yaml.v2"

	importerDB "github.com/fieldstudies/import-backend/pkg/db/importer"
	piiDB "github.com/fieldstudies/import-backend/pkg/db/pii"
	surveyDB "github.com/fieldstudies/import-backend/pkg/db/survey"
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

	// DB configs
	DBConfigs struct {
		SurveyDB   db.DBConfigYaml `json:"survey_db" yaml:"survey_db"`
		PiiDB      db.DBConfigYaml `json:"pii_db" yaml:"pii_db"`
		ImporterDB db.DBConfigYaml `json:"importer_db" yaml:"importer_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Document source configs
	DocumentSource    sourceclient.ClientConfig `json:"document_source" yaml:"document_source"`
	SourceCollections []string                  `json:"source_collections" yaml:"source_collections"`

	// Photo object storage
	PhotoStorage objectstore.PhotoStoreConfig `json:"photo_storage" yaml:"photo_storage"`

	// Feedback notification configs
	Notifications struct {
		FeedbackEmailsEnabled bool                              `json:"feedback_emails_enabled" yaml:"feedback_emails_enabled"`
		SMTPServerConfigPath  string                            `json:"smtp_server_config_path" yaml:"smtp_server_config_path"`
		FeedbackEmail         notifications.FeedbackEmailConfig `json:"feedback_email" yaml:"feedback_email"`
	} `json:"notifications" yaml:"notifications"`

	RunRefreshAfterImport bool `json:"run_refresh_after_import" yaml:"run_refresh_after_import"`
}

var conf config

var (
	surveyDBService   *surveyDB.SurveyDBService
	piiDBService      *piiDB.PiiDBService
	importerDBService *importerDB.ImporterDBService
)

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

	// init db
	initDBs()
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

func initDBs() {
	var err error
	surveyDBService, err = surveyDB.NewSurveyDBService(db.DBConfigFromYamlObj(conf.DBConfigs.SurveyDB))
	if err != nil {
		slog.Error("Error connecting to Survey DB", slog.String("error", err.Error()))
		panic(err)
	}

	piiDBService, err = piiDB.NewPiiDBService(db.DBConfigFromYamlObj(conf.DBConfigs.PiiDB))
	if err != nil {
		slog.Error("Error connecting to PII DB", slog.String("error", err.Error()))
		panic(err)
	}

	importerDBService, err = importerDB.NewImporterDBService(db.DBConfigFromYamlObj(conf.DBConfigs.ImporterDB))
	if err != nil {
		slog.Error("Error connecting to Importer DB", slog.String("error", err.Error()))
		panic(err)
	}
}
