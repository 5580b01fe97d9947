// Package validation checks user-entered book fields before they reach the
// record store. Every rule runs on every submit so that all field errors are
// reported together.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Error kinds
var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidYear  = errors.New("invalid year")
)

// MinYear is the earliest publication year accepted by the form.
const MinYear = 1000

// Field names as they appear in forms and error maps.
const (
	FieldTitle  = "title"
	FieldAuthor = "author"
	FieldYear   = "year"
)

var messages = map[string]string{
	FieldTitle:  "Title field is required.",
	FieldAuthor: "Author field is required.",
	FieldYear:   "Enter a valid year.",
}

// Input holds the validated subset of a book form.
type Input struct {
	Title  string `json:"title" validate:"notblank"`
	Author string `json:"author" validate:"notblank"`
	Year   int    `json:"year" validate:"required,min=1000,notfuture"`
}

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string
	Message string
	Kind    error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func (e *FieldError) Unwrap() error { return e.Kind }

// Errors aggregates every field that failed validation.
type Errors []*FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, fe := range e {
		errs = append(errs, fe)
	}
	return errs
}

// Map returns field -> message, the shape forms display inline.
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		m[fe.Field] = fe.Message
	}
	return m
}

// Validator validates book input against a clock so the upper year bound
// follows the current calendar year.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New creates a validator. A nil clock means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(), now: now}
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return jsonName(f.Tag.Get("json"))
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("notblank", validators.NotBlank)
	_ = v.validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(v.now().Year())
	})
	return v
}

// Engine exposes the underlying validator for request structs that carry
// their own tags.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// CurrentYear is the latest year the form accepts.
func (v *Validator) CurrentYear() int {
	return v.now().Year()
}

// Validate returns nil or Errors holding one entry per failed field.
func (v *Validator) Validate(in Input) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	seen := make(map[string]bool)
	var out Errors
	for _, fe := range verrs {
		field := fe.Field()
		if seen[field] {
			continue
		}
		seen[field] = true
		kind := ErrMissingField
		if field == FieldYear {
			kind = ErrInvalidYear
		}
		out = append(out, &FieldError{Field: field, Message: messages[field], Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool { return fieldOrder(out[i].Field) < fieldOrder(out[j].Field) })
	return out
}

func fieldOrder(field string) int {
	switch field {
	case FieldTitle:
		return 0
	case FieldAuthor:
		return 1
	default:
		return 2
	}
}

func jsonName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
