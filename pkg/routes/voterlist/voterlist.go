// Package voterlist exposes voter-list upload and activity endpoints. An
// upload creates the list row and runs the ingestion pipeline inline; the
// response carries the import summary.
package voterlist

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/turnoutcrew/canvass/config"
	campaignrepo "github.com/turnoutcrew/canvass/internal/repositories/campaign"
	campaignvoterrepo "github.com/turnoutcrew/canvass/internal/repositories/campaignvoter"
	voterlistrepo "github.com/turnoutcrew/canvass/internal/repositories/voterlist"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/ingest"
	"github.com/turnoutcrew/canvass/pkg/models"
)

var validate = validator.New()

// Register registers voter list routes
func Register(api *echo.Group) {
	api.POST("/campaigns/:id/voter-lists", Upload)
	api.PUT("/voter-lists/:id/activity", UpdateActivity)
}

// UploadResponse is the response for a voter list upload
type UploadResponse struct {
	VoterList models.VoterList     `json:"voter_list"`
	State     string               `json:"state"`
	Summary   models.ImportSummary `json:"summary"`
}

// Upload accepts a tab-delimited voter list file for a campaign, stores it,
// and processes it. Processing runs exactly once per upload; editing a list
// later never re-runs it.
func Upload(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "voterlist_handler.Upload")
	defer span.End()

	campaignID := c.Param("id")

	ctx, cfg, err := ectoinject.GetContext[*config.Config](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get config")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > cfg.UploadMaxSizeBytes {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "file exceeds the maximum size of %d bytes", cfg.UploadMaxSizeBytes)
	}
	contentType, _, _ := strings.Cut(fileHeader.Header.Get("Content-Type"), ";")
	contentType = strings.TrimSpace(contentType)
	if contentType != "text/plain" && contentType != "text/csv" {
		return httperror.NewHTTPError(http.StatusBadRequest, "file must be text/plain or text/csv")
	}

	dumpDateValue := c.FormValue("dump_date")
	if dumpDateValue == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "dump_date is required")
	}
	dumpDate, err := dateparse.ParseAny(dumpDateValue)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "dump_date is not a valid date")
	}

	ctx, campaigns, err := ectoinject.GetContext[*campaignrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	if _, err := campaigns.GetByID(ctx, campaignID); err != nil {
		return err
	}

	fileName, err := saveUpload(fileHeader, cfg.UploadDir)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to store uploaded file")
	}

	req := models.CreateVoterListRequest{
		DumpDate: dumpDate,
		FileName: fileName,
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, lists, err := ectoinject.GetContext[*voterlistrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	list, err := lists.Create(ctx, campaignID, req)
	if err != nil {
		return err
	}

	ctx, pipeline, err := ectoinject.GetContext[*ingest.Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ingestion pipeline")
	}
	result, err := pipeline.Run(ctx, list)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to process voter list")
	}

	return c.JSON(http.StatusCreated, UploadResponse{
		VoterList: *list,
		State:     string(result.State),
		Summary:   result.Summary,
	})
}

// UpdateActivity toggles a list's activity and propagates the flag to the
// relations the list introduced.
func UpdateActivity(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "voterlist_handler.UpdateActivity")
	defer span.End()

	id := c.Param("id")

	var req models.UpdateVoterListActivityRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, lists, err := ectoinject.GetContext[*voterlistrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	if err := lists.SetActive(ctx, id, *req.IsActive); err != nil {
		return err
	}

	ctx, relations, err := ectoinject.GetContext[*campaignvoterrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	if err := relations.SetActiveForList(ctx, id, *req.IsActive); err != nil {
		return err
	}

	list, err := lists.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}

func saveUpload(fileHeader *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := filepath.Join(dir, uuid.New().String()+"_"+filepath.Base(fileHeader.Filename))
	dst, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return name, nil
}
