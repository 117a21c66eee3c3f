package serializer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"sneaker-catalog/apps/catalog/errs"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field may not be blank."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "http_url":
		return "Enter a valid URL."
	}
	return "Invalid value."
}

// check runs the struct rules and records messages for fields that decoded
// cleanly.
func (r *reader) check(rules interface{}) {
	err := validate.Struct(rules)
	if err == nil {
		return
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		r.fail(errs.NonFieldErrors, err.Error())
		return
	}
	for _, fe := range ves {
		if r.verr.Has(fe.Field()) {
			continue
		}
		r.fail(fe.Field(), ruleMessage(fe))
	}
}

type shoeRules struct {
	Model       string `json:"model" validate:"required,max=100"`
	Version     string `json:"version" validate:"max=50"`
	Colorway    string `json:"colorway" validate:"required,max=100"`
	Category    string `json:"category" validate:"oneof=basketball running lifestyle football skateboard other"`
	ReleaseYear *int   `json:"release_year" validate:"omitempty,min=1950,max=9999"`
	Currency    string `json:"currency" validate:"required,max=3"`
	SizeSystem  string `json:"size_system" validate:"oneof=US UK EU CN JP"`
	SKU         string `json:"sku" validate:"max=50"`
}

type brandRules struct {
	Name    string `json:"name" validate:"required,max=50"`
	NameEn  string `json:"name_en" validate:"max=50"`
	Website string `json:"website" validate:"omitempty,max=200,http_url"`
}

type imageRules struct {
	AltText string `json:"alt_text" validate:"max=200"`
}
