// Package validation matches contact request bodies against the accepted
// form shapes. Shapes are tried in a fixed order and the first one that
// validates wins; nothing is scored or merged.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gulfdigital/backend/internal/model"
)

var formValidate *validator.Validate

// phonePattern accepts loosely formatted international numbers.
var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-().]{7,20}$`)

func init() {
	formValidate = validator.New(validator.WithRequiredStructEnabled())
	formValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = formValidate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// shape is one accepted form. foreign lists keys owned by a competing
// shape; a body carrying any of them never matches, so fields belonging to
// a later shape are not silently dropped. Other unknown keys are ignored.
type shape struct {
	schema  model.Schema
	newForm func() form
	foreign []string
}

// shapes is the precedence order. The basic shape must stay last: its
// errors are the ones reported when nothing matches, and it owns no field
// the others lack.
var shapes = []shape{
	{
		schema:  model.SchemaMarketing,
		newForm: func() form { return &MarketingForm{} },
		foreign: []string{"budget", "serviceId"},
	},
	{
		schema:  model.SchemaEnhanced,
		newForm: func() form { return &EnhancedForm{} },
		foreign: []string{"location", "price", "pageUrl", "serviceInterest"},
	},
	{schema: model.SchemaBasic, newForm: func() form { return &BasicForm{} }},
}

// Result is a body that matched one of the shapes.
type Result struct {
	Schema model.Schema
	form   form
}

// Submission builds the normalized record for the matched shape. Optional
// fields the shape does not carry are nil. Provenance is left to the caller.
func (r Result) Submission() *model.Submission {
	return r.form.submission()
}

// Failure lists human-readable reasons a body was rejected.
type Failure struct {
	Errors []string
}

func (f *Failure) Error() string {
	return strings.Join(f.Errors, ", ")
}

// Validate decodes body against each shape in precedence order. When no
// shape matches, the returned error is a *Failure carrying the basic
// shape's problems.
func Validate(body []byte) (Result, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil || keys == nil {
		return Result{}, &Failure{Errors: []string{"request body must be a JSON object"}}
	}

	var last []string
	for _, s := range shapes {
		f := s.newForm()
		problems := foreignFields(keys, s)
		problems = append(problems, check(body, f)...)
		if len(problems) == 0 {
			return Result{Schema: s.schema, form: f}, nil
		}
		last = problems
	}
	return Result{}, &Failure{Errors: last}
}

func foreignFields(keys map[string]json.RawMessage, s shape) []string {
	var problems []string
	for _, k := range s.foreign {
		if _, ok := keys[k]; ok {
			problems = append(problems, fmt.Sprintf("%s is not accepted by the %s form", k, s.schema))
		}
	}
	return problems
}

// check decodes body into f and validates it. Keys f does not declare are
// ignored.
func check(body []byte, f form) []string {
	var problems []string

	if err := json.Unmarshal(body, f); err != nil {
		problems = append(problems, describeDecodeError(err))
	}

	if err := formValidate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return append(problems, err.Error())
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}
	return problems
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.String())
	}
	return "request body is malformed"
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
