package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/incomesense-be/internal/repository"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrForbidden         = repository.ErrOwnerMismatch
	ErrDuplicateEmail    = repository.ErrDuplicateEmail
	ErrDuplicateUsername = repository.ErrDuplicateUsername

	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidID          = errors.New("invalid id format")
)

// ValidationError lists every problem found in one input. It matches ErrValidation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldMessages maps "Struct.Field.tag" to the message shown to clients.
var fieldMessages = map[string]string{
	"registration.Username.required":      "Please add a username",
	"registration.Username.min":           "Username must be at least 3 characters long",
	"registration.Username.max":           "Username cannot be more than 50 characters",
	"registration.Email.required":         "Please add an email",
	"registration.Email.email":            "Please add a valid email",
	"registration.Password.required":      "Please add a password",
	"registration.Password.min":           "Password must be at least 6 characters long",
	"transactionFields.Type.required":     "Transaction type is required",
	"transactionFields.Type.oneof":        "Transaction type must be income or expense",
	"transactionFields.Category.required": "Category is required",
	"transactionFields.Description.max":   "Description cannot be more than 200 characters",
}

// check runs the validator on v and converts its report into a ValidationError.
// Extra problems found by the caller are appended.
func check(v any, extra ...string) error {
	var problems []string
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			if msg, ok := fieldMessages[fe.StructNamespace()+"."+fe.Tag()]; ok {
				problems = append(problems, msg)
				continue
			}
			problems = append(problems, fe.Field()+" is invalid")
		}
	}
	problems = append(problems, extra...)
	if len(problems) > 0 {
		return invalid(problems...)
	}
	return nil
}
