package ajax

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPolicy is returned by ParsePolicy for an unknown policy name.
var ErrInvalidPolicy = errors.New("invalid concurrency policy")

// Policy defines what happens when a new call is issued while other calls are outstanding.
type Policy int

const (
	// PolicyLast cancels all outstanding calls before the new one starts. It is the default.
	PolicyLast Policy = iota
	// PolicyFirst suppresses the new call and returns the handle of the outstanding one.
	PolicyFirst
	// PolicyAll sends every call independently.
	PolicyAll
)

// ParsePolicy converts a policy name, "first", "last" or "all", to the Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "last", "":
		return PolicyLast, nil
	case "first":
		return PolicyFirst, nil
	case "all":
		return PolicyAll, nil
	default:
		return PolicyLast, fmt.Errorf(`%w "%s", expected one of "first", "last", "all"`, ErrInvalidPolicy, name)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyLast:
		return "last"
	case PolicyFirst:
		return "first"
	case PolicyAll:
		return "all"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}
