package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldstudies/import-backend/pkg/apihelpers"
	"github.com/fieldstudies/import-backend/pkg/db"
	"github.com/fieldstudies/import-backend/pkg/importer"
	"github.com/fieldstudies/import-backend/pkg/notifications"
	"github.com/fieldstudies/import-backend/pkg/objectstore"
	"github.com/fieldstudies/import-backend/pkg/sourceclient"
	"github.com/fieldstudies/import-backend/services/importer-api/apihandlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	importerDB "github.com/fieldstudies/import-backend/pkg/db/importer"
	piiDB "github.com/fieldstudies/import-backend/pkg/db/pii"
	surveyDB "github.com/fieldstudies/import-backend/pkg/db/survey"
	smtpclient "github.com/fieldstudies/import-backend/pkg/smtp-client"
)

func main() {
	surveyDBService, err := surveyDB.NewSurveyDBService(db.DBConfigFromYamlObj(conf.DBConfigs.SurveyDB))
	if err != nil {
		slog.Error("Error connecting to Survey DB", slog.String("error", err.Error()))
		return
	}

	piiDBService, err := piiDB.NewPiiDBService(db.DBConfigFromYamlObj(conf.DBConfigs.PiiDB))
	if err != nil {
		slog.Error("Error connecting to PII DB", slog.String("error", err.Error()))
		return
	}

	importerDBService, err := importerDB.NewImporterDBService(db.DBConfigFromYamlObj(conf.DBConfigs.ImporterDB))
	if err != nil {
		slog.Error("Error connecting to Importer DB", slog.String("error", err.Error()))
		return
	}

	photoStore, err := objectstore.NewPhotoStore(context.Background(), conf.PhotoStorage)
	if err != nil {
		slog.Error("Failed to init photo object storage", slog.String("error", err.Error()))
		return
	}

	var notifier importer.FeedbackNotifier
	if conf.Notifications.FeedbackEmailsEnabled {
		smtpServerList := smtpclient.SmtpServerList{}
		if err := smtpServerList.ReadFromFile(conf.Notifications.SMTPServerConfigPath); err != nil {
			slog.Error("Failed to read SMTP server config", slog.String("error", err.Error()))
			return
		}
		smtpClients, err := smtpclient.NewSmtpClients(smtpServerList)
		if err != nil {
			slog.Error("Error creating SMTP clients", slog.String("error", err.Error()))
			return
		}
		notifier = notifications.NewFeedbackEmailNotifier(smtpClients, conf.Notifications.FeedbackEmail)
	}

	documentImporter := importer.NewImporter(
		sourceclient.NewClient(conf.DocumentSource),
		surveyDBService,
		piiDBService,
		importerDBService,
		photoStore,
		notifier,
	)

	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add handlers
	router.GET("/", apihandlers.HealthCheckHandle)
	root := router.Group("/")
	apiModule := apihandlers.NewHTTPHandler(
		conf.ApiKeys,
		documentImporter,
		surveyDBService,
		importerDBService,
	)
	apiModule.AddRoutes(root)

	if conf.GinConfig.DebugMode {
		apihelpers.WriteRoutesToFile(router, "importer-api-routes.txt")
	}

	slog.Info("Starting Importer API on port " + conf.GinConfig.Port)
	err = router.Run(":" + conf.GinConfig.Port)
	if err != nil {
		slog.Error("Exited Importer API", slog.String("error", err.Error()))
		return
	}
}
