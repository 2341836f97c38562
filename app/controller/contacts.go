package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-contacts/app/dto/http"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ContactsController struct {
	validator service.ContactValidator
	sink      service.ProfileSink
}

func NewContactsController(validator service.ContactValidator, sink service.ProfileSink) *ContactsController {
	return &ContactsController{validator: validator, sink: sink}
}

func (c *ContactsController) Validate(ctx echo.Context) error {
	req, err := types.NewValidateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind validate request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	profile := req.Profile()
	violations := c.validator.Validate(profile)

	return ctx.JSON(http.StatusOK, httpdto.NewValidateProfileResponse(profile.UserID, violations))
}

func (c *ContactsController) Consume(ctx echo.Context) error {
	req, err := types.NewConsumeProfilesRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind consume request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	result := c.sink.ConsumeAll(service.SourceHTTP, req.Entities())
	logrus.WithFields(logrus.Fields{
		"accepted": result.Accepted,
		"changed":  result.Changed,
	}).Debug("Contact profiles consumed")

	return ctx.JSON(http.StatusOK, httpdto.NewConsumeProfilesResponse(result))
}

func (c *ContactsController) Remove(ctx echo.Context) error {
	req, err := types.NewRemoveProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind remove request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	profile := req.Profile()
	res := c.sink.Remove(service.SourceHTTP, profile)

	return ctx.JSON(http.StatusOK, httpdto.NewRemoveProfileResponse(profile.UserID, res))
}
