package walker

import (
	"fmt"
	"strings"

	"github.com/dendrascience/filecoder/util"
)

// SplitPolicy decides what happens to file names that do not have exactly
// one extension, such as "README" or "archive.tar.gz".
type SplitPolicy string

const (
	// PolicyReject turns such a name into a *util.ConfigurationError that
	// aborts the run.
	PolicyReject SplitPolicy = "reject"
	// PolicySkip reports the item as skipped and moves on.
	PolicySkip SplitPolicy = "skip"
	// PolicyLast splits at the last dot: all earlier segments form the base
	// name. A name without a dot is coded without an extension.
	PolicyLast SplitPolicy = "last"
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = PolicyReject

// Policies lists the accepted policy names.
func Policies() []SplitPolicy {
	return []SplitPolicy{PolicyReject, PolicySkip, PolicyLast}
}

// ParseSplitPolicy maps a configured name onto a policy. The empty string
// selects DefaultPolicy.
func ParseSplitPolicy(name string) (SplitPolicy, error) {
	if name == "" {
		return DefaultPolicy, nil
	}
	p := SplitPolicy(strings.ToLower(name))
	for _, known := range Policies() {
		if p == known {
			return p, nil
		}
	}
	return "", &util.ConfigurationError{
		Field:  "split-policy",
		Value:  name,
		Reason: fmt.Sprintf("unknown policy (want one of %s, %s, %s)", PolicyReject, PolicySkip, PolicyLast),
	}
}

// SplitName splits a file name into base name and extension (without the
// dot). A name with exactly one dot that has text on both sides splits
// cleanly under every policy. Anything else is resolved by p; under
// PolicyReject and PolicySkip the returned error is a *util.ConfigurationError.
func SplitName(name string, p SplitPolicy) (base, ext string, err error) {
	dots := strings.Count(name, ".")
	i := strings.LastIndexByte(name, '.')

	if dots == 1 && i > 0 && i < len(name)-1 {
		return name[:i], name[i+1:], nil
	}
	if p != PolicyLast {
		return "", "", splitError(name, dots)
	}

	switch {
	case dots == 0:
		return name, "", nil
	case i == len(name)-1:
		return "", "", &util.ConfigurationError{Field: "file name", Value: name, Reason: "ends with a separator"}
	case i == 0 || strings.Trim(name[:i], ".") == "":
		return "", "", &util.ConfigurationError{Field: "file name", Value: name, Reason: "has an empty base name"}
	}
	return name[:i], name[i+1:], nil
}

func splitError(name string, dots int) error {
	var reason string
	switch dots {
	case 0:
		reason = "has no extension"
	case 1:
		reason = "has an empty base name or extension"
	default:
		reason = fmt.Sprintf("has %d extension separators", dots)
	}
	return &util.ConfigurationError{Field: "file name", Value: name, Reason: reason}
}
