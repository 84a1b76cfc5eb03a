package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"donortrack/internal/core"
	"donortrack/internal/log"
)

// detail is the error body every failure uses.
func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// writeError maps service errors onto status codes. Unknown errors are
// logged and reported as 500 without leaking their text.
func writeError(c *gin.Context, err error) {
	var nf *core.NotFoundError
	switch {
	case errors.As(err, &nf):
		detail(c, http.StatusNotFound, nf.Kind+" not found")
	case errors.Is(err, core.ErrNotFound):
		detail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, core.ErrInUse):
		detail(c, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalid):
		detail(c, http.StatusUnprocessableEntity, err.Error())
	default:
		ctx := c.Request.Context()
		log.FromContext(ctx).ErrorContext(ctx, "Request failed",
			log.FieldError, err,
			log.FieldMethod, c.Request.Method,
			log.FieldPath, c.Request.URL.Path)
		detail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func unprocessable(c *gin.Context, err error) {
	detail(c, http.StatusUnprocessableEntity, err.Error())
}

// bindJSON decodes the body into dst and validates binding tags. Failures
// become 422 with a message naming the JSON field.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		unprocessable(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, fe.Field()+" is required")
			case "email":
				msgs = append(msgs, fe.Field()+" must be a valid email address")
			default:
				msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
			}
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%s must be %s", typeErr.Field, typeErr.Type)
	}
	if errors.Is(err, io.EOF) {
		return errors.New("request body is required")
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.New("request body is not valid JSON")
	}
	if errors.Is(err, core.ErrInvalidAmount) {
		return errors.New("amount must be a decimal number")
	}
	return err
}

var registerTagName sync.Once

// useJSONFieldNames makes validation errors report json names
// (donor_id) instead of Go field names (DonorID).
func useJSONFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}
