package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arka-edu/timetable-api/internal/models"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

func asAppError(err error, target **appErrors.Error) bool {
	return errors.As(err, target)
}

// dateQuery parses a required YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, name+" query parameter is required")
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, name+" must be YYYY-MM-DD")
	}
	return date, nil
}

// intQuery parses an optional integer query parameter.
func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be an integer")
	}
	return v, nil
}

// scopeQuery binds the batch/class/course scope from query parameters.
func scopeQuery(c *gin.Context) models.BatchScope {
	return models.BatchScope{
		BatchID:  c.Query("batchId"),
		ClassID:  c.Query("classId"),
		CourseID: c.Query("courseId"),
	}
}
