package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"campus/internal/apperr"
	"campus/internal/bootcamp"
)

func (h *Handler) ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// fail renders err with the status of its kind. Unclassified errors are logged and
// reported as a generic 500.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": apperr.PublicMessage(err)})
}

// bind decodes the body into dst and renders the first validation failure on error.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		h.fail(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation(fe.Field() + " " + ruleMessage(fe))
	}
	return apperr.Validation("invalid request body")
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "enrollmentstatus":
		return "must be one of PENDING, APPROVED, REJECTED, WAITLISTED"
	default:
		return "is invalid"
	}
}

var registerOnce sync.Once

// registerValidators reports json field names and adds the custom tags used by request types.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("enrollmentstatus", func(fl validator.FieldLevel) bool {
			_, ok := bootcamp.ParseStatus(fl.Field().String())
			return ok
		})
	})
}
