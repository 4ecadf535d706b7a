package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	importerDB "github.com/fieldstudies/import-backend/pkg/db/importer"
	surveyDB "github.com/fieldstudies/import-backend/pkg/db/survey"
	"github.com/fieldstudies/import-backend/pkg/importer"
	"github.com/fieldstudies/import-backend/pkg/refresh"

	mw "github.com/fieldstudies/import-backend/pkg/apihelpers/middlewares"
)

type HTTPHandler struct {
	apiKeys           []string
	documentImporter  *importer.Importer
	surveyDBService   *surveyDB.SurveyDBService
	importerDBService *importerDB.ImporterDBService

	// serializes import batches: overlapping runs against the same
	// collection could double-count problem attempts
	importLock sync.Mutex
}

func NewHTTPHandler(
	apiKeys []string,
	documentImporter *importer.Importer,
	surveyDBService *surveyDB.SurveyDBService,
	importerDBService *importerDB.ImporterDBService,
) *HTTPHandler {
	return &HTTPHandler{
		apiKeys:           apiKeys,
		documentImporter:  documentImporter,
		surveyDBService:   surveyDBService,
		importerDBService: importerDBService,
	}
}

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) AddRoutes(rg *gin.RouterGroup) {
	v1 := rg.Group("/v1")
	v1.Use(mw.HasValidAPIKey(h.apiKeys))

	v1.POST("/import/:collection", h.triggerImport)
	v1.GET("/import-problems", h.getImportProblems)
	v1.DELETE("/import-problems/:collection/:docId", h.deleteImportProblem)
	v1.POST("/refresh/:pipelineName", h.runRefresh)
}

// triggerImport runs one synchronous import batch. A batch with failed
// documents is still a 200: callers must treat a non-empty error list as
// partial success, not failure.
func (h *HTTPHandler) triggerImport(c *gin.Context) {
	collection := c.Param("collection")

	if !h.importLock.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "an import batch is already running"})
		return
	}
	defer h.importLock.Unlock()

	result, err := h.documentImporter.Import(c.Request.Context(), collection, nil)
	if err != nil {
		slog.Error("Import batch failed", slog.String("collection", collection), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import batch failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *HTTPHandler) getImportProblems(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	filter := bson.M{}
	if collection := c.Query("collection"); collection != "" {
		filter["collection"] = collection
	}

	problems, paginationInfo, err := h.importerDBService.GetProblems(filter, page, limit)
	if err != nil {
		slog.Error("Failed to fetch import problems", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch import problems"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"importProblems": problems,
		"pagination":     paginationInfo,
	})
}

func (h *HTTPHandler) deleteImportProblem(c *gin.Context) {
	collection := c.Param("collection")
	docID := c.Param("docId")

	err := h.importerDBService.DeleteProblem(collection, docID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "import problem not found"})
			return
		}
		slog.Error("Failed to delete import problem", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete import problem"})
		return
	}

	slog.Info("Import problem deleted", slog.String("collection", collection), slog.String("docId", docID))
	c.JSON(http.StatusOK, gin.H{"msg": "import problem deleted"})
}

func (h *HTTPHandler) runRefresh(c *gin.Context) {
	pipelineName := c.Param("pipelineName")

	var pipeline refresh.Pipeline
	switch pipelineName {
	case refresh.PIPELINE_NAME_REPORTING:
		pipeline = refresh.ReportingPipeline(h.surveyDBService)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown pipeline"})
		return
	}

	stepResults := pipeline.Execute(c.Request.Context(), nil)
	c.JSON(http.StatusOK, gin.H{"stepResults": stepResults})
}
