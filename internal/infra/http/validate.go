package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Report validation failures by json field name, not Go field name.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
}

// validateStage binds and validates the declared body/query targets. It runs
// last before the handler: an unauthorized caller never sees field-level
// validation detail.
func (s *Server) validateStage(preset Preset) func(c *gin.Context, req *Request) bool {
	return func(c *gin.Context, req *Request) bool {
		if preset.NewQuery != nil {
			query := preset.NewQuery()
			if err := c.ShouldBindQuery(query); err != nil {
				writeValidationError(c, fieldErrors(err))
				return false
			}
			req.Query = query
		}
		if preset.NewBody != nil {
			body := preset.NewBody()
			if err := c.ShouldBindJSON(body); err != nil {
				writeValidationError(c, fieldErrors(err))
				return false
			}
			req.Body = body
		}
		return true
	}
}

// fieldErrors converts the validator's native error shape into the response
// field list. Non-validator errors (malformed JSON) become a single entry.
func fieldErrors(err error) []FieldError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]FieldError, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, FieldError{
				Field: strings.ToLower(fieldErr.Field()),
				Rule:  fieldErr.Tag(),
				Param: fieldErr.Param(),
			})
		}
		return fields
	}
	return []FieldError{{Field: "body", Rule: "malformed"}}
}
