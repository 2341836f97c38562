package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-contacts/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-contacts/app/dto/http"
	"github.com/vibast-solutions/ms-go-contacts/app/index"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type IndexAdmin interface {
	Reset(source string)
	Resync(ctx context.Context, source string) (*dto.ResyncResult, error)
	Stats() index.Stats
	Conflicts(ch index.Channel) []index.Conflict
}

type AdminController struct {
	admin IndexAdmin
}

func NewAdminController(admin IndexAdmin) *AdminController {
	return &AdminController{admin: admin}
}

func (c *AdminController) Reset(ctx echo.Context) error {
	c.admin.Reset(service.SourceHTTP)
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "index reset"})
}

func (c *AdminController) Resync(ctx echo.Context) error {
	result, err := c.admin.Resync(ctx.Request().Context(), service.SourceHTTP)
	if err != nil {
		if errors.Is(err, service.ErrResyncInProgress) {
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "resync already in progress"})
		}
		if errors.Is(err, service.ErrNoSnapshotSource) {
			return ctx.JSON(http.StatusServiceUnavailable, httpdto.ErrorResponse{Error: "no snapshot source configured"})
		}
		logrus.WithError(err).Error("Index resync failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.NewResyncResponse(result))
}

func (c *AdminController) Stats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, httpdto.NewIndexStatsResponse(c.admin.Stats()))
}

func (c *AdminController) Conflicts(ctx echo.Context) error {
	req, err := types.NewConflictsRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	return ctx.JSON(http.StatusOK, httpdto.NewConflictsResponse(req.Channel, c.admin.Conflicts(req.Channel)))
}
