package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core/assessment"
)

type assessmentApi struct {
	svc *assessment.Service
}

func registerAssessmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assessment.Service) {
	api := assessmentApi{svc: svc}

	ag := g.Group("/assessments/:id", jwt)
	ag.POST("/submissions", api.submit)
	ag.POST("/results", api.enterResult, staffMiddleware())
}

// Handlers

func (api *assessmentApi) submit(ctx echo.Context) error {
	var data assessment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// students may only submit for themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsStudent && claims.Identifier != data.SubjectID {
		return errHttpForbidden
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), ctx.Param("id"), data.SubjectID, data.Answers)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}

	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assessmentApi) enterResult(ctx echo.Context) error {
	var data assessment.NewResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResult")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.EnterResult(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording result")
	}

	return ctx.JSON(http.StatusCreated, res)
}
