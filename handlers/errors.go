package handlers

import (
	"fmt"
	"net/http"

	"cohort-tools-api/db"
	"cohort-tools-api/metrics"

	"github.com/gin-gonic/gin"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Failure describes a failed request. Handlers attach it to the context with
// c.Error and ErrorRenderer turns it into the response.
type Failure struct {
	Status  int
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Cause)
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Cause }

// fail records a failure and stops the handler chain
func fail(c *gin.Context, status int, msg string, cause error) {
	_ = c.Error(&Failure{Status: status, Message: msg, Cause: cause})
	c.Abort()
}

// storeFailure classifies a store error. Missing records are 404 with
// notFoundMsg, everything unrecognized is a 500 naming the operation.
func storeFailure(c *gin.Context, err error, operationMsg, notFoundMsg string) {
	switch errors.Cause(err) {
	case db.ErrNotFound:
		fail(c, http.StatusNotFound, notFoundMsg, err)
	case db.ErrCohortReference:
		fail(c, http.StatusBadRequest, "Cohort does not exist", err)
	case db.ErrInvalidSpreadsheet:
		fail(c, http.StatusBadRequest, "Invalid spreadsheet", err)
	default:
		metrics.StoreFailuresTotal.WithLabelValues(operationMsg).Inc()
		fail(c, http.StatusInternalServerError, operationMsg, err)
	}
}

func renderFailure(c *gin.Context, f *Failure) {
	if f.Status == 0 {
		f.Status = http.StatusInternalServerError
	}

	fields := message.Fields{
		"message":    f.Message,
		"status":     f.Status,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.GetString(requestIDKey),
	}
	if f.Status >= http.StatusInternalServerError {
		grip.Error(message.WrapError(f.Cause, fields))
	} else {
		grip.Debug(message.WrapError(f.Cause, fields))
	}

	c.AbortWithStatusJSON(f.Status, gin.H{"message": f.Message})
}

// ErrorRenderer writes the response for the last failure recorded by a
// handler. It is the only place failure responses are produced.
func ErrorRenderer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var f *Failure
		if !errors.As(c.Errors.Last().Err, &f) {
			f = &Failure{
				Status:  http.StatusInternalServerError,
				Message: "Internal server error",
				Cause:   c.Errors.Last().Err,
			}
		}
		renderFailure(c, f)
	}
}

// Recovery converts a panic into a 500 failure response
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		renderFailure(c, &Failure{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
			Cause:   errors.Errorf("panic: %v", recovered),
		})
	})
}

// NotFound handles requests that match no route
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
}
