package plugin

import (
	"os"
	"strings"
)

// Policy controls how policy errors (duplicate registration, activating an
// active plugin, dependency loops, non-conforming classes) are handled.
type Policy string

const (
	// PolicyStrict fails fast on policy errors.
	PolicyStrict Policy = "strict"
	// PolicyLenient logs policy errors and skips the offending item.
	PolicyLenient Policy = "lenient"
)

// Strict reports whether the policy is strict.
func (p Policy) Strict() bool {
	return p == PolicyStrict
}

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(value string) (Policy, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(PolicyStrict), "true", "1":
		return PolicyStrict, true
	case string(PolicyLenient), "false", "0":
		return PolicyLenient, true
	default:
		return "", false
	}
}

// DefaultPolicy returns the environment-aware default: strict on CI, lenient elsewhere.
func DefaultPolicy() Policy {
	if isCIEnvironment() {
		return PolicyStrict
	}
	return PolicyLenient
}

func isCIEnvironment() bool {
	ciEnvVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_HOME",
	}

	for _, key := range ciEnvVars {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" && strings.ToLower(value) != "false" && value != "0" {
			return true
		}
	}

	return false
}
