package config

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	gwerrors "github.com/alexisbeaulieu97/groundwork/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern     = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	apiVersionPattern = regexp.MustCompile(`^\d+\.x$`)
	settingKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	sshGitPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+:[a-zA-Z0-9._/~-]+$`)
)

// GetValidator returns the shared validator with the groundwork validations registered.
func GetValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("api_version", func(fl validator.FieldLevel) bool {
			return apiVersionPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("setting_key", func(fl validator.FieldLevel) bool {
			return IsSettingKey(fl.Field().String())
		})
		_ = v.RegisterValidation("git_url", func(fl validator.FieldLevel) bool {
			return IsGitURL(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// IsSettingKey reports whether key is an uppercase configuration key.
func IsSettingKey(key string) bool {
	return settingKeyPattern.MatchString(key)
}

// IsGitURL reports whether location points to a remote git repository,
// either over http(s) or in the scp-like ssh form.
func IsGitURL(location string) bool {
	if strings.TrimSpace(location) == "" {
		return false
	}

	if parsed, err := url.Parse(location); err == nil {
		switch strings.ToLower(parsed.Scheme) {
		case "http", "https", "ssh", "git":
			return parsed.Host != ""
		}
	}

	return sshGitPattern.MatchString(location)
}

// ValidateStruct validates value and converts the first failure into a ValidationError.
func ValidateStruct(section string, value any) error {
	err := GetValidator().Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field := fieldName(section, fieldErrs[0])
		return gwerrors.NewValidationError(field, "failed validation for tag '"+fieldErrs[0].Tag()+"'", err)
	}
	return gwerrors.NewValidationError(section, err.Error(), err)
}

func fieldName(section string, fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	lowered := []string{strings.ToLower(section)}
	for _, part := range parts[1:] {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
