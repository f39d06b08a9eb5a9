package submission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"craftcal/internal/picker"
)

// Field names double as HTML form input names.
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldOrganization = "organization"
	FieldLocation     = "location"
	FieldLink         = "link"
	FieldDate         = "date"
	FieldTime         = "time"
	FieldPrice        = "price"
	FieldDescription  = "description"
	FieldKids         = "kids"
)

// Fields lists every draft field in form order.
var Fields = []string{
	FieldName, FieldEmail, FieldOrganization, FieldLocation, FieldLink,
	FieldDate, FieldTime, FieldPrice, FieldDescription, FieldKids,
}

// Length limits, in characters.
const (
	MaxName         = 140
	MaxEmail        = 100
	MaxOrganization = 200
	MaxLocation     = 200
	MaxDescription  = 500
)

// Draft is the raw, user-entered form state. Time holds "H:MM AM|PM" and
// Kids is "", "yes" or "no".
type Draft struct {
	Name         string `form:"name" validate:"required,max=140"`
	Email        string `form:"email" validate:"required,max=100,email,dotted"`
	Organization string `form:"organization" validate:"required,max=200"`
	Location     string `form:"location" validate:"required,max=200"`
	Link         string `form:"link" validate:"required,url,weburl"`
	Date         string `form:"date" validate:"required,datetime=2006-01-02,notpast"`
	Time         string `form:"time" validate:"required,halfhour"`
	Price        string `form:"price" validate:"omitempty,numeric,nonnegative"`
	Description  string `form:"description" validate:"omitempty,max=500"`
	Kids         string `form:"kids" validate:"omitempty,oneof=yes no"`
}

// Errors mirrors Draft. An empty string means the field is valid.
type Errors struct {
	Name         string
	Email        string
	Organization string
	Location     string
	Link         string
	Date         string
	Time         string
	Price        string
	Description  string
	Kids         string
}

// Valid reports whether no field has an error.
func (e Errors) Valid() bool {
	return e == Errors{}
}

// Get returns the error for one field.
func (e *Errors) Get(field string) string {
	if p := e.field(field); p != nil {
		return *p
	}
	return ""
}

// Failed lists the fields that carry an error, in form order.
func (e *Errors) Failed() []string {
	var out []string
	for _, name := range Fields {
		if e.Get(name) != "" {
			out = append(out, name)
		}
	}
	return out
}

func (e *Errors) field(name string) *string {
	switch name {
	case FieldName:
		return &e.Name
	case FieldEmail:
		return &e.Email
	case FieldOrganization:
		return &e.Organization
	case FieldLocation:
		return &e.Location
	case FieldLink:
		return &e.Link
	case FieldDate:
		return &e.Date
	case FieldTime:
		return &e.Time
	case FieldPrice:
		return &e.Price
	case FieldDescription:
		return &e.Description
	case FieldKids:
		return &e.Kids
	}
	return nil
}

func (d *Draft) field(name string) *string {
	switch name {
	case FieldName:
		return &d.Name
	case FieldEmail:
		return &d.Email
	case FieldOrganization:
		return &d.Organization
	case FieldLocation:
		return &d.Location
	case FieldLink:
		return &d.Link
	case FieldDate:
		return &d.Date
	case FieldTime:
		return &d.Time
	case FieldPrice:
		return &d.Price
	case FieldDescription:
		return &d.Description
	case FieldKids:
		return &d.Kids
	}
	return nil
}

// Form pairs a draft with its error record.
type Form struct {
	Draft  Draft
	Errors Errors
}

// Set edits one field and clears that field's error. Unknown fields are
// ignored.
func (f *Form) Set(field, value string) {
	p := f.Draft.field(field)
	if p == nil {
		return
	}
	*p = value
	*f.Errors.field(field) = ""
}

// SetDateTime replaces the chosen date and time together.
func (f *Form) SetDateTime(date, tm string) {
	f.Set(FieldDate, date)
	f.Set(FieldTime, tm)
}

// Validate recomputes every field error and reports whether the draft is
// clean. now decides which dates count as past.
func (f *Form) Validate(now time.Time) bool {
	f.Errors = Validate(f.Draft, now)
	return f.Errors.Valid()
}

// Recheck recomputes the errors of the named fields only. Errors on other
// fields are left as they are.
func (f *Form) Recheck(now time.Time, fields ...string) {
	if len(fields) == 0 {
		return
	}
	all := Validate(f.Draft, now)
	for _, name := range fields {
		if p := f.Errors.field(name); p != nil {
			*p = all.Get(name)
		}
	}
}

// Reset wipes the draft and errors back to empty.
func (f *Form) Reset() {
	*f = Form{}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// nowKey carries the validation clock into the notpast rule.
type nowKey struct{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	must(v.RegisterValidation("dotted", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
		u, err := url.ParseRequestURI(fl.Field().String())
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}))
	must(v.RegisterValidationCtx("notpast", func(ctx context.Context, fl validator.FieldLevel) bool {
		now, ok := ctx.Value(nowKey{}).(time.Time)
		if !ok {
			now = time.Now()
		}
		past, err := picker.NewDatePicker(now).IsPast(fl.Field().String())
		return err == nil && !past
	}))
	must(v.RegisterValidation("halfhour", func(fl validator.FieldLevel) bool {
		_, err := NormalizeTime(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		_, err := parsePrice(fl.Field().String())
		return err == nil
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

var labels = map[string]string{
	FieldName:         "Event name",
	FieldEmail:        "Email",
	FieldOrganization: "Organization",
	FieldLocation:     "Location",
	FieldLink:         "Link",
	FieldDate:         "Date",
	FieldTime:         "Time",
	FieldPrice:        "Price",
	FieldDescription:  "Description",
	FieldKids:         "Kid friendly",
}

// Validate checks a draft against the static rule set. Values are trimmed
// (and kids lowercased) before the rules run.
func Validate(d Draft, now time.Time) Errors {
	var e Errors
	ctx := context.WithValue(context.Background(), nowKey{}, now)
	err := validate.StructCtx(ctx, normalized(d))
	if err == nil {
		return e
	}

	// A Draft value is always a valid struct, so only field errors come back.
	for _, fe := range err.(validator.ValidationErrors) {
		if p := e.field(fe.Field()); p != nil && *p == "" {
			*p = message(fe)
		}
	}
	return e
}

func normalized(d Draft) Draft {
	for _, name := range Fields {
		p := d.field(name)
		*p = strings.TrimSpace(*p)
	}
	d.Kids = strings.ToLower(d.Kids)
	return d
}

func message(fe validator.FieldError) string {
	label := labels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must be %s characters or fewer", label, fe.Param())
	case "email", "dotted":
		return "Enter a valid email address"
	case "url", "weburl":
		return "Enter a valid URL, including http:// or https://"
	case "datetime":
		return "Enter the date as YYYY-MM-DD"
	case "notpast":
		return "Date cannot be in the past"
	case "halfhour":
		return "Choose a time from the list"
	case "numeric":
		return "Price must be a number"
	case "nonnegative":
		return "Price cannot be negative"
	case "oneof":
		return "Choose yes, no, or leave blank"
	}
	return label + " is invalid"
}

var errNegativePrice = errors.New("price is negative")

// parsePrice reads a finite, non-negative decimal price.
func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("price %q is not a finite number", s)
	}
	if v < 0 {
		return 0, errNegativePrice
	}
	return v, nil
}
