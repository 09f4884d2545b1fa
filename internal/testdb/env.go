package testdb

import (
	"net/url"
	"os"
)

// Environment variables consulted by DatabaseURL, in order.
const (
	EnvTestDatabaseURL = "IMAGINE_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvAppDatabaseURL  = "IMAGINE_DATABASE_URL"
)

var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// IsCI reports whether the tests run under a CI provider.
func IsCI() bool {
	for _, name := range ciVariables {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// DatabaseURL returns the first non-empty test database URL, or "".
func DatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL, EnvAppDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// MaskDatabaseURL hides the password of a database URL for logging.
func MaskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}
	u, err := url.Parse(dbURL)
	if err != nil {
		return "[unparseable database url]"
	}
	return u.Redacted()
}
