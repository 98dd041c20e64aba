package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core/account"
)

type accountApi struct {
	svc *account.Service
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *account.Service) {
	api := accountApi{svc: svc}

	// un-authed endpoints
	ag := g.Group("/auth")
	ag.POST("/login", api.login)

	// provisioning is for admins only
	adm := g.Group("/admin", jwt, adminMiddleware())
	adm.POST("/teachers", api.provisionTeacher)
	adm.POST("/students", api.provisionStudent)
}

// Handlers

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.Identifier, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *accountApi) provisionTeacher(ctx echo.Context) error {
	var data account.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	acct, err := api.svc.ProvisionTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "provisioning teacher")
	}

	return ctx.JSON(http.StatusCreated, acct)
}

func (api *accountApi) provisionStudent(ctx echo.Context) error {
	var data account.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	acct, err := api.svc.ProvisionStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "provisioning student")
	}

	return ctx.JSON(http.StatusCreated, acct)
}
