package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Request describes a single trip planning invocation. It is immutable once
// accepted: stages receive it by value and never modify it.
type Request struct {
	Destination string   `json:"destination" validate:"required"`
	Budget      float64  `json:"budget" validate:"required,gt=0"`
	Days        int      `json:"days" validate:"required,gt=0"`
	Travelers   int      `json:"travelers" validate:"required,gt=0"`
	Preferences []string `json:"preferences,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request invariants before the pipeline runs.
// Invalid input fails fast with REQUEST_VALIDATION_FAILED and the pipeline
// is never started.
func (r Request) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		return WrapError(REQUEST_VALIDATION_FAILED,
			fmt.Sprintf("invalid trip request for %q", r.Destination), err)
	}
	return nil
}

// Fingerprint returns a deterministic parameter map for cache key derivation.
// Identical semantic requests always produce identical fingerprints:
// preference tags are sorted and deduplicated, free-text notes are excluded
// because they do not affect data collection.
func (r Request) Fingerprint() map[string]string {
	prefs := make([]string, 0, len(r.Preferences))
	seen := make(map[string]bool, len(r.Preferences))
	for _, p := range r.Preferences {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		prefs = append(prefs, p)
	}
	sort.Strings(prefs)

	return map[string]string{
		"destination": strings.ToLower(strings.TrimSpace(r.Destination)),
		"days":        fmt.Sprintf("%d", r.Days),
		"travelers":   fmt.Sprintf("%d", r.Travelers),
		"preferences": strings.Join(prefs, ","),
	}
}

// HasPreference reports whether the request carries the given preference tag.
func (r Request) HasPreference(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, p := range r.Preferences {
		if strings.ToLower(strings.TrimSpace(p)) == tag {
			return true
		}
	}
	return false
}
