package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"loan-master/internal/usecase/build"
)

type runErrorResponse struct {
	Error string        `json:"error"`
	Run   *build.RunDTO `json:"run,omitempty"`
}

// writeRunError maps run failure classes to HTTP codes. The failed run
// record is returned alongside when there is one.
func writeRunError(c echo.Context, dto *build.RunDTO, err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, build.ErrRunInProgress):
		code = http.StatusConflict
	case errors.Is(err, build.ErrCompute):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, build.ErrLoad):
		code = http.StatusBadGateway
	case errors.Is(err, build.ErrPersist):
		code = http.StatusInternalServerError
	}
	return c.JSON(code, runErrorResponse{Error: err.Error(), Run: dto})
}
