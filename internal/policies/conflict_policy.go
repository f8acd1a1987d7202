package policies

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ericmarkmartin/uv/internal/types"
)

// CheckConflicts rejects a resolved set in which the same package name is
// pinned to incompatible sources. A name may appear more than once only
// when every occurrence agrees on its locator and specifier; markers may
// differ, since the same package can be required under different
// environments.
func CheckConflicts(requirements []types.Requirement) error {
	type pin struct {
		locator   string
		specifier string
	}
	seen := map[types.PackageName]pin{}
	for _, requirement := range requirements {
		current := pin{specifier: requirement.Specifier}
		if requirement.Locator != nil {
			current.locator = requirement.Locator.String()
		}
		previous, ok := seen[requirement.Name]
		if !ok {
			seen[requirement.Name] = current
			continue
		}
		if previous.locator != current.locator {
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("conflicting locators for %s: %s vs %s",
					requirement.Name, previous.locator, current.locator))
		}
		if previous.specifier != current.specifier {
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("conflicting specifiers for %s: %q vs %q",
					requirement.Name, previous.specifier, current.specifier))
		}
	}
	return nil
}
