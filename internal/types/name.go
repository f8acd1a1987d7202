package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// PackageName is a normalized Python distribution name. Construction goes
// through ParsePackageName, which enforces the PEP 503 grammar and collapses
// runs of separators, so two names that refer to the same distribution
// compare equal (e.g. "Flask_Login" and "flask-login").
type PackageName string

// namePattern is the PEP 503 name grammar: alphanumeric start and end,
// with dots, dashes, and underscores allowed in between.
var namePattern = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// nameSeparators matches separator runs collapsed during normalization.
var nameSeparators = regexp.MustCompile(`[-_.]+`)

// ParsePackageName validates a raw string against the package-name grammar
// and returns its normalized form.
func ParsePackageName(value string) (PackageName, error) {
	trimmed := strings.TrimSpace(value)
	if !namePattern.MatchString(trimmed) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package name: %q", value))
	}
	normalized := strings.ToLower(nameSeparators.ReplaceAllString(trimmed, "-"))
	return PackageName(normalized), nil
}

func (n PackageName) String() string {
	return string(n)
}
