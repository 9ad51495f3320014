package respond

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"

	"gallery-api/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var initOnce sync.Once

// InitValidation makes binding errors report JSON field names.
func InitValidation() {
	initOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonTagName)
		}
	})
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Bind decodes the JSON body into dst and runs its binding tags. Failures
// come back as InvalidInput with one message per field.
func Bind(c *gin.Context, dst any) error {
	InitValidation()
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

// BindMap decodes the JSON body as an object, for partial updates that
// need to see which keys were sent.
func BindMap(c *gin.Context) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, apperr.New(apperr.InvalidInput, "Invalid JSON body")
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

func bindError(err error) error {
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.Is(err, io.EOF) {
		return apperr.New(apperr.InvalidInput, "Invalid JSON body")
	}
	if errors.As(err, &ute) {
		return apperr.Newf(apperr.InvalidInput, "Invalid input data. %s has the wrong type", ute.Field)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fe.Field()+" "+fieldMessage(fe))
		}
		sort.Strings(msgs)
		return apperr.New(apperr.InvalidInput, "Invalid input data. "+strings.Join(msgs, ". "))
	}
	return apperr.Wrap(apperr.InvalidInput, "Invalid input data", err)
}

func fieldMessage(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "min":
		if isNumber(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumber(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "gte":
		return "must be greater than or equal to " + param
	case "gtfield":
		return "must be after " + param
	case "dive":
		return "has an invalid item"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// ValidateVar runs a single validator tag against v, e.g. ValidateVar(email, "email").
func ValidateVar(v any, tag string) bool {
	InitValidation()
	if e, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return e.Var(v, tag) == nil
	}
	return true
}
