// Package profile discovers Chrome profiles on the local machine. It is
// a thin adapter: the analysis pipeline only ever sees the file paths it
// hands out.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Profile is a Chrome profile directory.
type Profile struct {
	// Name is the directory name: "Default", "Profile 1", ...
	Name string

	Path string

	// DisplayName is the user-facing name from Preferences, falling
	// back to Name.
	DisplayName string
}

// BookmarksPath returns the path of the profile's Bookmarks file.
func (p Profile) BookmarksPath() string {
	return filepath.Join(p.Path, "Bookmarks")
}

// HistoryPath returns the path of the profile's History database.
func (p Profile) HistoryPath() string {
	return filepath.Join(p.Path, "History")
}

// BasePath returns the Chrome user-data directory for the current OS.
func BasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data"), nil
	case "linux":
		return filepath.Join(home, ".config", "google-chrome"), nil
	}
	return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
}

// Discover lists the profiles under the default Chrome base path.
func Discover() ([]Profile, error) {
	base, err := BasePath()
	if err != nil {
		return nil, err
	}
	return DiscoverIn(base)
}

// DiscoverIn lists the profiles under an explicit base directory: the
// Default profile plus every "Profile N" directory.
func DiscoverIn(base string) ([]Profile, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", base, err)
	}

	var profiles []Profile
	if info, err := os.Stat(filepath.Join(base, "Default")); err == nil && info.IsDir() {
		profiles = append(profiles, newProfile("Default", filepath.Join(base, "Default")))
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "Profile ") {
			profiles = append(profiles, newProfile(e.Name(), filepath.Join(base, e.Name())))
		}
	}
	return profiles, nil
}

// Find returns the profile whose Name or DisplayName matches.
func Find(name string) (Profile, bool) {
	profiles, err := Discover()
	if err != nil {
		return Profile{}, false
	}
	return findIn(profiles, name)
}

func findIn(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name || p.DisplayName == name {
			return p, true
		}
	}
	return Profile{}, false
}

func newProfile(name, path string) Profile {
	p := Profile{Name: name, Path: path, DisplayName: name}
	if display := readDisplayName(path); display != "" {
		p.DisplayName = display
	}
	return p
}

// readDisplayName pulls the user-facing profile name out of the
// Preferences file. Any failure just falls back to the directory name.
func readDisplayName(path string) string {
	data, err := os.ReadFile(filepath.Join(path, "Preferences"))
	if err != nil {
		return ""
	}
	var prefs struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return ""
	}
	return prefs.Profile.Name
}
