package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFileName is where the questionnaire saves the profile and where the
// training flow looks for it.
const DefaultFileName = "user_profile.json"

// ErrMissingProfile is returned by Load when the profile file does not exist.
var ErrMissingProfile = errors.New("user profile not found")

// Encode renders p as the indented JSON document offered for download.
func Encode(p Profile) ([]byte, error) {
	return json.MarshalIndent(p, "", "    ")
}

// Load reads a profile from path. A missing file, or one holding no fields,
// yields ErrMissingProfile and an empty profile; no defaults are filled in.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Profile{}, fmt.Errorf("%w: %s", ErrMissingProfile, path)
		}
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if p.Len() == 0 {
		return Profile{}, fmt.Errorf("%w: %s has no fields", ErrMissingProfile, path)
	}
	return p, nil
}

// Save writes p to path, replacing whatever is there. No lock is taken: the
// last writer wins.
func Save(path string, p Profile) error {
	data, err := Encode(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating profile dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}
