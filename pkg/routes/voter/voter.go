// Package voter exposes the dialing and flagging endpoints volunteers use.
package voter

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/turnoutcrew/canvass/config"
	campaignvoterrepo "github.com/turnoutcrew/canvass/internal/repositories/campaignvoter"
	voterrepo "github.com/turnoutcrew/canvass/internal/repositories/voter"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/models"
)

var validate = validator.New()

// Register registers voter routes
func Register(api *echo.Group) {
	api.GET("/campaigns/:id/voters/dial", ListToDial)
	api.POST("/voters/:id/flags", Flag)
}

// ListToDial serves a batch of dialable voters for a campaign and stamps
// last_served on their relations, so the same voters are not handed to
// another volunteer within the cooldown.
func ListToDial(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "voter_handler.ListToDial")
	defer span.End()

	campaignID := c.Param("id")

	ctx, cfg, err := ectoinject.GetContext[*config.Config](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get config")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = cfg.DialDefaultLimit
	}

	ctx, relations, err := ectoinject.GetContext[*campaignvoterrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	voters, err := relations.ListVotersToDial(ctx, campaignID, limit)
	if err != nil {
		return err
	}

	voterIDs := make([]string, len(voters))
	for i, v := range voters {
		voterIDs[i] = v.ID
	}
	if err := relations.UpdateLastServed(ctx, campaignID, voterIDs); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"voters": voters,
		"count":  len(voters),
	})
}

// Flag reports a voter's contact field as wrong. The report only increments
// the matching counter; stored contact info is never overwritten.
func Flag(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "voter_handler.Flag")
	defer span.End()

	id := c.Param("id")

	var req models.FlagVoterRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, voters, err := ectoinject.GetContext[*voterrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	voter, err := voters.FlagContactField(ctx, id, req.Field)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, voter)
}
