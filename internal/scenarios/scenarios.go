// Package scenarios loads the login fixture collection: named credential
// records the suite looks up by tag.
package scenarios

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kuitang/login-suite/internal/errs"
)

// Scenario tags present in the default collection.
const (
	ValidCredentials         = "valid_credentials"
	InvalidPassword          = "invalid_password"
	InvalidUsername          = "invalid_username"
	LockedOutUser            = "locked_out_user"
	EmptyUsername            = "empty_username"
	EmptyPassword            = "empty_password"
	EmptyUsernameAndPassword = "empty_username_and_password"
)

var (
	// ErrScenarioNotFound marks a lookup of a tag the collection does not hold.
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrInvalidCollection marks a fixture file that breaks tag uniqueness.
	ErrInvalidCollection = errors.New("invalid fixture collection")
)

//go:embed fixtures/users.json
var defaultFixtures []byte

// Scenario is one login attempt's inputs. ErrorMessage is only set when the
// expected error is specific to the record.
type Scenario struct {
	Tag          string `json:"scenario" yaml:"scenario"`
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password" yaml:"password"`
	ErrorMessage string `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
}

// Collection is an immutable set of scenarios with unique tags.
type Collection struct {
	items []Scenario
}

// New validates items and returns a collection holding a copy of them.
func New(items []Scenario) (*Collection, error) {
	seen := make(map[string]int, len(items))
	for i, s := range items {
		if strings.TrimSpace(s.Tag) == "" {
			return nil, errs.Wrap(errs.InvalidArgument,
				fmt.Sprintf("fixture record %d has an empty scenario tag", i), ErrInvalidCollection)
		}
		if prev, dup := seen[s.Tag]; dup {
			return nil, errs.Wrap(errs.InvalidArgument,
				fmt.Sprintf("scenario tag %q appears at records %d and %d", s.Tag, prev, i), ErrInvalidCollection)
		}
		seen[s.Tag] = i
	}
	copied := make([]Scenario, len(items))
	copy(copied, items)
	return &Collection{items: copied}, nil
}

var loadDefault = sync.OnceValues(func() (*Collection, error) {
	return Parse(defaultFixtures, FormatJSON)
})

// Default returns the embedded collection. It is parsed once per process.
func Default() (*Collection, error) {
	return loadDefault()
}

// Format identifies a fixture file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errs.New(errs.InvalidArgument,
			fmt.Sprintf("unsupported fixture file %q: want .json, .yaml or .yml", path))
	}
}

// Parse decodes a fixture list. Unknown JSON fields are rejected so a
// misspelled errorMessage key fails loudly instead of dropping the expectation.
func Parse(data []byte, format Format) (*Collection, error) {
	var items []Scenario
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&items); err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, "decode JSON fixtures", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&items); err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, "decode YAML fixtures", err)
		}
	default:
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("unknown fixture format %q", format))
	}
	return New(items)
}

// LoadFile reads a JSON or YAML fixture file.
func LoadFile(path string) (*Collection, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, fmt.Sprintf("read fixture file %q", path), err)
	}
	return Parse(data, format)
}

// Find returns the scenario with the given tag. A missing tag is a
// test-authoring bug, so the error names the tag.
func (c *Collection) Find(tag string) (Scenario, error) {
	for _, s := range c.items {
		if s.Tag == tag {
			return s, nil
		}
	}
	return Scenario{}, errs.Wrap(errs.NotFound,
		fmt.Sprintf("test data not found for scenario %q", tag), ErrScenarioNotFound)
}

// Valid returns the valid_credentials record.
func (c *Collection) Valid() (Scenario, error) {
	return c.Find(ValidCredentials)
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.items)
}

// Tags lists tags in file order.
func (c *Collection) Tags() []string {
	tags := make([]string, len(c.items))
	for i, s := range c.items {
		tags[i] = s.Tag
	}
	return tags
}

// All returns a copy of the records in file order.
func (c *Collection) All() []Scenario {
	out := make([]Scenario, len(c.items))
	copy(out, c.items)
	return out
}
