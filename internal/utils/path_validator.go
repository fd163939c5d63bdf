package utils

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"medialib/internal/config"
	"medialib/internal/domain"
)

// NotBlank rejects strings made of whitespace only. Like every ozzo string
// rule it skips empty values, so pair it with validation.Required.
var NotBlank = validation.Match(regexp.MustCompile(`\S`)).Error("cannot be blank")

// NameRules validates a single folder or file name.
var NameRules = []validation.Rule{
	validation.Required.Error("name cannot be empty"),
	NotBlank.Error("name cannot be empty"),
	validation.Length(1, config.MaxNodeNameLength),
	validation.Match(regexp.MustCompile(`^[^/\\]+$`)).Error("name cannot contain slashes"),
	validation.NotIn(".", "..").Error("name cannot be '.' or '..'"),
	validation.By(printable),
}

// ValidateName validates a single folder or file name (no slashes, reasonable length)
func ValidateName(name string) error {
	return ToValidationError(validation.Validate(name, NameRules...))
}

// ValidatePath normalizes a location path and checks its length and segments.
func ValidatePath(path string) (string, error) {
	joined, err := Join(path)
	if err != nil {
		return "", err
	}

	err = validation.Validate(joined,
		validation.Length(0, config.MaxLocationLength).Error(fmt.Sprintf("path exceeds maximum length of %d characters", config.MaxLocationLength)),
	)
	if err != nil {
		return "", ToValidationError(err)
	}

	if joined == "" {
		return "", nil
	}
	for _, segment := range strings.Split(joined, Separator) {
		if err := ValidateName(segment); err != nil {
			return "", fmt.Errorf("segment %q: %w", segment, err)
		}
	}

	return joined, nil
}

// ToValidationError maps ozzo-validation output onto the domain errors.
// Domain errors raised by validation.By rules keep their type.
func ToValidationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return internal.InternalError()
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if errors.Is(fields[key], domain.ErrValidation) {
				return fmt.Errorf("%s: %w", key, fields[key])
			}
		}
	}

	return &domain.ValidationError{Message: err.Error()}
}

func printable(value interface{}) error {
	value, _ = validation.Indirect(value)
	s, _ := value.(string)
	return rejectFunkyCharacters(s)
}
