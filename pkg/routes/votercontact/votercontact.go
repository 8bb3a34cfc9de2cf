// Package votercontact exposes the contact-recording endpoint.
package votercontact

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/turnoutcrew/canvass/internal/appcontext"
	campaignvoterrepo "github.com/turnoutcrew/canvass/internal/repositories/campaignvoter"
	votercontactrepo "github.com/turnoutcrew/canvass/internal/repositories/votercontact"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/models"
)

var validate = validator.New()

// Register registers voter contact routes
func Register(api *echo.Group) {
	api.POST("/voter-contacts", Create)
}

// Create records a contact event and stamps last_contacted on the voter's
// relation with each campaign the contact was made on behalf of.
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "votercontact_handler.Create")
	defer span.End()

	userID := appcontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	var req models.CreateVoterContactRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, contacts, err := ectoinject.GetContext[*votercontactrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	contact, err := contacts.Create(ctx, userID, req)
	if err != nil {
		return err
	}

	ctx, relations, err := ectoinject.GetContext[*campaignvoterrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	if err := relations.UpdateLastContacted(ctx, req.CampaignIDs, req.VoterID); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, contact)
}
