package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ticket-office/internal/entity"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP statuses. Anything unrecognized is
// a 500 and gets logged by the recovery middleware chain.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidToken),
		errors.Is(err, entity.ErrWrongCredentials),
		errors.Is(err, entity.ErrAccountBlocked),
		errors.Is(err, entity.ErrEmailNotValidated):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrUserAlreadyExists),
		errors.Is(err, entity.ErrRoleCantChange),
		errors.Is(err, entity.ErrSoldOut),
		errors.Is(err, entity.ErrRemoveDependentFirst),
		errors.Is(err, entity.ErrOneFieldAtATime),
		errors.Is(err, entity.ErrTryingToResellTooMany),
		errors.Is(err, entity.ErrInvalidRequest),
		errors.Is(err, entity.ErrInvalidEmail):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// credentials pulls the access method and token out of the request headers.
// Resolution happens inside the services, so a request without credentials
// still reaches handlers that do not need any.
func credentials(c *gin.Context) entity.Credentials {
	return entity.Credentials{
		Method: c.GetHeader("access-type"),
		Token:  c.GetHeader("access-token"),
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
