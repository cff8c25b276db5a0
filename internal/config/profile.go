package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrProfileNotFound = errors.New("review profile not found")
	ErrProfileParsing  = errors.New("review profile parsing failed")
)

// ReviewProfile holds per-user review preferences read from .codepilot.yml.
type ReviewProfile struct {
	// CustomInstructions are appended to every review prompt.
	CustomInstructions string `yaml:"custom_instructions"`
	// Languages restricts the languages offered for review; empty means all.
	Languages []string `yaml:"languages"`
	// DefaultStrictness is used when a request does not name one.
	DefaultStrictness string `yaml:"default_strictness"`
}

// DefaultReviewProfile returns the profile used when no file is present.
func DefaultReviewProfile() *ReviewProfile {
	return &ReviewProfile{DefaultStrictness: "moderate"}
}

// LoadReviewProfile reads the YAML profile at path. A missing file yields the
// default profile together with ErrProfileNotFound.
func LoadReviewProfile(path string) (*ReviewProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultReviewProfile(), ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to read review profile %s: %w", path, err)
	}

	profile := DefaultReviewProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileParsing, err)
	}

	profile.CustomInstructions = strings.TrimSpace(profile.CustomInstructions)
	for i, l := range profile.Languages {
		profile.Languages[i] = strings.ToLower(strings.TrimSpace(l))
	}
	return profile, nil
}
