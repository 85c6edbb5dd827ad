package model

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once

	emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,}$`)
)

func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report json names so messages line up with the request payload
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("useremail", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("digits10", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// fieldMessages maps "<field>.<tag>" to the message reported to clients.
var fieldMessages = map[string]string{
	"fullName.required": "Full name is required",
	"fullName.min":      "Full name must be at least 3 characters",
	"email.required":    "Email is required",
	"email.useremail":   "Please provide a valid email address",
	"password.required": "Password is required",
	"phone.required":    "Phone number is required",
	"phone.digits10":    "Phone number must contain only digits and be at least 10 digits",
	"walletBalance.min": "Wallet balance cannot be negative",
	"kycStatus.oneof":   "kycStatus must be one of [Pending Approved Rejected]",
	"deviceType.oneof":  "deviceInfo.deviceType must be one of [Mobile Desktop]",
	"os.oneof":          "deviceInfo.os must be one of [Android iOS Windows macOS]",
}

// FormatValidationErrors converts validator errors into client messages,
// one per failing field.
func FormatValidationErrors(err error) []string {
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fieldMessage(e.Field(), e.Tag()))
	}
	return messages
}

func fieldMessage(field, tag string) string {
	if msg, ok := fieldMessages[field+"."+tag]; ok {
		return msg
	}
	return "Field validation for '" + field + "' failed on the '" + tag + "' tag"
}

// varMessage resolves the message for a single-value Var check, which carries
// no field name of its own.
func varMessage(field string, err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return fieldMessage(field, errs[0].Tag())
	}
	return err.Error()
}
