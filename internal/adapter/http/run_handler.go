package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"loan-master/internal/domain/run"
	"loan-master/internal/usecase/build"
)

// Runner is the slice of build.Usecase the HTTP layer needs.
type Runner interface {
	Run(ctx context.Context, in build.RunInput) (*build.RunDTO, error)
	Get(ctx context.Context, runID string) (*build.RunDTO, error)
	List(ctx context.Context, limit int) ([]build.RunDTO, error)
}

type RunHandler struct {
	uc                 Runner
	defaultStrictDates bool
}

func NewRunHandler(uc Runner, defaultStrictDates bool) *RunHandler {
	return &RunHandler{uc: uc, defaultStrictDates: defaultStrictDates}
}

type triggerRunReq struct {
	// Accept canonical date `YYYY-MM-DD`; empty means today
	AsOf        string `json:"as_of"        validate:"omitempty,datetime=2006-01-02"`
	StrictDates *bool  `json:"strict_dates"`
}

type getRunReq struct {
	RunID string `param:"run_id" json:"run_id" validate:"required,hex32"`
}

type listRunsReq struct {
	Limit int `query:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

func (r triggerRunReq) toInput(defaultStrictDates bool) (build.RunInput, error) {
	in := build.RunInput{StrictDates: defaultStrictDates, Trigger: run.TriggerAPI}
	if r.AsOf != "" {
		asOf, err := time.Parse("2006-01-02", r.AsOf)
		if err != nil {
			return in, err
		}
		in.AsOf = asOf
	}
	if r.StrictDates != nil {
		in.StrictDates = *r.StrictDates
	}
	return in, nil
}

// TriggerRun starts a full recomputation and answers when it has finished.
func (h *RunHandler) TriggerRun(c echo.Context) error {
	var req triggerRunReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	in, err := req.toInput(h.defaultStrictDates)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "as_of", Message: "must be a date formatted " + dateHint("2006-01-02")}},
		})
	}

	dto, err := h.uc.Run(c.Request().Context(), in)
	if err != nil {
		return writeRunError(c, dto, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *RunHandler) GetRun(c echo.Context) error {
	var req getRunReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid run_id"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Get(c.Request().Context(), req.RunID)
	if errors.Is(err, run.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RunHandler) ListRuns(c echo.Context) error {
	var req listRunsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	if req.Limit == 0 {
		req.Limit = 20
	}
	runs, err := h.uc.List(c.Request().Context(), req.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs})
}
