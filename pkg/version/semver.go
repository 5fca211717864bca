package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SemVer is a parsed semantic version per semver.org, with an optional
// leading "v" accepted on input.
type SemVer struct {
	Major int64
	Minor int64
	Patch int64

	PreRelease string
	Build      string
}

// Parse parses a semantic version string.
func Parse(raw string) (SemVer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SemVer{}, errors.New("version cannot be empty")
	}

	var v SemVer
	core := strings.TrimPrefix(raw, "v")
	if before, after, ok := strings.Cut(core, "+"); ok {
		core, v.Build = before, after
		if err := validateIdentifiers(v.Build, false); err != nil {
			return SemVer{}, fmt.Errorf("invalid build metadata in %q: %w", raw, err)
		}
	}
	if before, after, ok := strings.Cut(core, "-"); ok {
		core, v.PreRelease = before, after
		if err := validateIdentifiers(v.PreRelease, true); err != nil {
			return SemVer{}, fmt.Errorf("invalid prerelease in %q: %w", raw, err)
		}
	}

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return SemVer{}, fmt.Errorf("invalid semantic version: %q", raw)
	}
	var err error
	if v.Major, err = parseVersionNumber(parts[0]); err != nil {
		return SemVer{}, fmt.Errorf("invalid major version in %q: %w", raw, err)
	}
	if v.Minor, err = parseVersionNumber(parts[1]); err != nil {
		return SemVer{}, fmt.Errorf("invalid minor version in %q: %w", raw, err)
	}
	if v.Patch, err = parseVersionNumber(parts[2]); err != nil {
		return SemVer{}, fmt.Errorf("invalid patch version in %q: %w", raw, err)
	}
	return v, nil
}

// MustParse parses a semantic version string and panics on error.
func MustParse(raw string) SemVer {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether raw is a valid semantic version.
func IsValid(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// String returns the canonical representation, without the "v" prefix.
func (v SemVer) String() string {
	base := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.PreRelease != "" {
		base += "-" + v.PreRelease
	}
	if v.Build != "" {
		base += "+" + v.Build
	}
	return base
}

// Compare returns -1 when v < other, 1 when v > other and 0 when equal.
// Build metadata never affects precedence.
func (v SemVer) Compare(other SemVer) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	return comparePreRelease(v.PreRelease, other.PreRelease)
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePreRelease orders prerelease strings identifier by identifier:
// numeric identifiers compare numerically and rank below alphanumeric ones,
// and a release (empty prerelease) ranks above any prerelease.
func comparePreRelease(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}

	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if aParts[i] == bParts[i] {
			continue
		}
		aNum, aErr := strconv.ParseInt(aParts[i], 10, 64)
		bNum, bErr := strconv.ParseInt(bParts[i], 10, 64)
		switch {
		case aErr == nil && bErr == nil:
			return compareInt(aNum, bNum)
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		case aParts[i] < bParts[i]:
			return -1
		default:
			return 1
		}
	}
	if len(aParts) < len(bParts) {
		return -1
	}
	return 1
}

// parseVersionNumber parses one core version number: digits only, no leading
// zero except "0" itself.
func parseVersionNumber(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty number")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("leading zero in %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit in %q", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// validateIdentifiers checks a dot-separated prerelease or build suffix.
// Numeric prerelease identifiers must not have leading zeros.
func validateIdentifiers(s string, prerelease bool) error {
	for _, id := range strings.Split(s, ".") {
		if id == "" {
			return errors.New("empty identifier")
		}
		for _, r := range id {
			alnum := r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-'
			if !alnum {
				return fmt.Errorf("invalid character in %q", id)
			}
		}
		if prerelease && len(id) > 1 && id[0] == '0' {
			if _, err := strconv.ParseInt(id, 10, 64); err == nil {
				return fmt.Errorf("numeric identifier %q has a leading zero", id)
			}
		}
	}
	return nil
}
