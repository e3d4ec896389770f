package apiclient

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var profileFieldLabels = map[string]string{
	"FirstName":   "First name",
	"LastName":    "Last name",
	"Bio":         "Bio",
	"LinkedInURL": "LinkedIn URL",
	"College":     "College",
	"City":        "City",
	"Country":     "Country",
}

// ValidateProfile checks f against its validate tags
func ValidateProfile(v *validator.Validate, f ProfileForm) error {
	return v.Struct(f)
}

// ValidationMessage describes the first failed field of a profile form
func ValidationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "An error occurred"
	}

	fe := errs[0]
	label := profileFieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "url":
		return label + " must be a valid URL"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	default:
		return label + " is invalid"
	}
}
