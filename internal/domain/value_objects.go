package domain

import (
	"fmt"
	"regexp"

	"github.com/asaskevich/govalidator"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

const (
	maxNameLength    = 255
	maxContentBytes  = 2048
)

var nameCharPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Name is the spec's unique, human-chosen identifier.
type Name struct {
	value string
}

// NewName validates and constructs a Name. Construction failure returns a
// *ValidationError with one of EmptyName, NameTooLong, or InvalidCharacters.
func NewName(raw string) (Name, error) {
	if govalidator.IsNull(raw) {
		return Name{}, newValidationError(EmptyName, "name must not be empty")
	}
	if len(raw) > maxNameLength {
		return Name{}, newValidationError(NameTooLong, "name must be at most 255 characters")
	}
	if !nameCharPattern.MatchString(raw) {
		return Name{}, newValidationError(InvalidCharacters, "name may only contain letters, digits, '.', '_', '-'")
	}
	return Name{value: raw}, nil
}

// String returns the raw name.
func (n Name) String() string { return n.value }

// Normalized returns the Unicode NFC normalization of the name, used for
// uniqueness comparisons so visually identical names in different
// normalization forms collide rather than silently coexisting.
func (n Name) Normalized() string {
	return norm.NFC.String(n.value)
}

// Content is the spec body: non-empty, size-bounded, well-formed YAML.
type Content struct {
	value string
}

// NewContent validates and constructs Content. Construction failure returns a
// *ValidationError with one of EmptyContent, ContentTooLarge, or InvalidYaml.
func NewContent(raw string) (Content, error) {
	if len(raw) == 0 {
		return Content{}, newValidationError(EmptyContent, "content must not be empty")
	}
	if len(raw) > maxContentBytes {
		return Content{}, newValidationError(ContentTooLarge, fmt.Sprintf(
			"content is %s, at most %s allowed",
			humanize.Bytes(uint64(len(raw))), humanize.Bytes(uint64(maxContentBytes)),
		))
	}
	var probe interface{}
	if err := yaml.Unmarshal([]byte(raw), &probe); err != nil {
		return Content{}, newValidationError(InvalidYaml, err.Error())
	}
	return Content{value: raw}, nil
}

// String returns the raw YAML content.
func (c Content) String() string { return c.value }

// Version is a positive, monotonically-incrementing content revision counter.
type Version struct {
	value int
}

// InitialVersion is the version assigned by Created: 1.
func InitialVersion() Version { return Version{value: 1} }

// NewVersion wraps a known-positive integer, e.g. one read back from storage.
func NewVersion(v int) Version { return Version{value: v} }

// Int returns the underlying integer.
func (v Version) Int() int { return v.value }

// Increment returns the next version (n+1).
func (v Version) Increment() Version {
	return Version{value: v.value + 1}
}
