package user

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "user-service/pkg/errors"
)

// Failure messages reported per field.
const (
	MsgNameRequired = "Name is required"
	MsgInvalidEmail = "Invalid email format"
)

// fieldOrder fixes the order in which failures are reported.
var fieldOrder = []string{"name", "email"}

var fieldMessages = map[string]string{
	"name":  MsgNameRequired,
	"email": MsgInvalidEmail,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks an untyped JSON value against the user schema.
// On success it returns an Input carrying exactly name and email; otherwise it
// returns a *errors.ValidationError listing every failing field.
// Values are never coerced: a number in "name" fails just like a missing name.
func Validate(raw any) (Input, error) {
	obj, _ := raw.(map[string]any)

	name, nameIsText := obj["name"].(string)
	email, emailIsText := obj["email"].(string)
	in := Input{Name: name, Email: email}

	failed := make(map[string]bool, len(fieldOrder))
	if !nameIsText {
		failed["name"] = true
	}
	if !emailIsText {
		failed["email"] = true
	}

	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Input{}, err
		}
		for _, fe := range fieldErrs {
			failed[fe.Field()] = true
		}
	}

	verr := apperrors.NewValidationError()
	for _, field := range fieldOrder {
		if failed[field] {
			verr.Add(field, fieldMessages[field])
		}
	}
	if !verr.HasErrors() {
		return in, nil
	}
	return Input{}, verr
}
