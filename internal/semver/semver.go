// Package semver implements the strict version grammar used by ftk:
// major.minor.patch with an optional -prerelease suffix. Build metadata,
// partial versions and leading "v" are all rejected. Prerelease strings
// are ordered as opaque strings, which is looser than full semver but
// matches how lock constraints are written in practice.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?$`)

func Parse(text string) (Version, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Version{}, fmt.Errorf("VER_PARSE: invalid version %q", text)
	}
	major, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("VER_PARSE: invalid major in %q", text)
	}
	minor, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("VER_PARSE: invalid minor in %q", text)
	}
	patch, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("VER_PARSE: invalid patch in %q", text)
	}
	return Version{Major: major, Minor: minor, Patch: patch, Prerelease: m[4]}, nil
}

// IsValid reports whether text parses under the strict grammar.
func IsValid(text string) bool {
	_, err := Parse(text)
	return err == nil
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare returns -1, 0 or 1. A version without a prerelease ranks above
// the same numeric version with one; two prereleases compare as strings.
func Compare(a, b Version) int {
	if c := compareUint(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareUint(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareUint(a.Patch, b.Patch); c != 0 {
		return c
	}
	switch {
	case a.Prerelease == "" && b.Prerelease == "":
		return 0
	case a.Prerelease == "":
		return 1
	case b.Prerelease == "":
		return -1
	default:
		return strings.Compare(a.Prerelease, b.Prerelease)
	}
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Latest is the sentinel constraint meaning "no constraint".
const Latest = "latest"

// Satisfies reports whether version meets constraint. An unparseable
// version yields (false, nil); a malformed constraint operand is an
// error so it can be surfaced instead of silently passing.
func Satisfies(version, constraint string) (bool, error) {
	v, err := Parse(version)
	if err != nil {
		return false, nil
	}
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || strings.EqualFold(constraint, Latest) {
		return true, nil
	}

	op, operand := splitConstraint(constraint)
	base, err := Parse(operand)
	if err != nil {
		return false, fmt.Errorf("VER_CONSTRAINT: invalid constraint %q", constraint)
	}

	switch op {
	case "":
		return Compare(v, base) == 0, nil
	case "^":
		return satisfiesCaret(v, base), nil
	case "~":
		return Compare(v, base) >= 0 && v.Major == base.Major && v.Minor == base.Minor, nil
	case ">=":
		return Compare(v, base) >= 0, nil
	case ">":
		return Compare(v, base) > 0, nil
	case "<=":
		return Compare(v, base) <= 0, nil
	case "<":
		return Compare(v, base) < 0, nil
	default:
		return false, fmt.Errorf("VER_CONSTRAINT: unsupported operator %q", op)
	}
}

// CheckConstraint verifies that constraint is well-formed without
// evaluating it: the sentinel "latest", or a recognized operator with a
// parseable operand, or a bare exact version.
func CheckConstraint(constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || strings.EqualFold(constraint, Latest) {
		return nil
	}
	_, operand := splitConstraint(constraint)
	if _, err := Parse(operand); err != nil {
		return fmt.Errorf("VER_CONSTRAINT: invalid constraint %q", constraint)
	}
	return nil
}

func splitConstraint(constraint string) (op, operand string) {
	for _, candidate := range []string{">=", "<=", ">", "<", "^", "~"} {
		if strings.HasPrefix(constraint, candidate) {
			return candidate, strings.TrimSpace(constraint[len(candidate):])
		}
	}
	return "", constraint
}

// satisfiesCaret keeps v within the leftmost non-zero component of base:
// ^1.2.3 pins the major, ^0.2.3 the minor, ^0.0.3 the patch.
func satisfiesCaret(v, base Version) bool {
	if Compare(v, base) < 0 {
		return false
	}
	switch {
	case base.Major > 0:
		return v.Major == base.Major
	case base.Minor > 0:
		return v.Major == 0 && v.Minor == base.Minor
	default:
		return v.Major == 0 && v.Minor == 0 && v.Patch == base.Patch
	}
}

// MaxSatisfying returns the highest candidate that satisfies constraint,
// or "" when none does. Unparseable candidates are skipped.
func MaxSatisfying(candidates []string, constraint string) string {
	best := ""
	var bestVer Version
	for _, c := range candidates {
		ok, err := Satisfies(c, constraint)
		if err != nil || !ok {
			continue
		}
		v, err := Parse(c)
		if err != nil {
			continue
		}
		if best == "" || Compare(v, bestVer) > 0 {
			best = c
			bestVer = v
		}
	}
	return best
}
