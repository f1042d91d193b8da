package flow

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"staybook/internal/domain"
	"staybook/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a draft before submission. It returns domain.ValidationErrors or nil.
func Validate(d models.BookingDraft) error {
	var errs domain.ValidationErrors

	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, domain.ValidationError{Field: fe.Field(), Msg: message(fe)})
		}
	}

	if d.CheckIn.IsZero() {
		errs = append(errs, domain.ValidationError{Field: "check_in", Msg: "is required"})
	}
	if d.CheckOut.IsZero() {
		errs = append(errs, domain.ValidationError{Field: "check_out", Msg: "is required"})
	}
	if !d.CheckIn.IsZero() && !d.CheckOut.IsZero() && !d.CheckOut.After(d.CheckIn) {
		errs = append(errs, domain.ValidationError{Field: "check_out", Msg: "must be after check-in"})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
