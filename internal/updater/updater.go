// Package updater checks GitHub for newer cuprism releases and replaces the
// running binary with the latest one.
package updater

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

const (
	repoSlug         = "CaptShanks/cuprism"
	installScriptURL = "https://raw.githubusercontent.com/CaptShanks/cuprism/main/install.sh"
	cacheFile        = "update-check.json"
)

// Release is the newest published version
type Release struct {
	Version string
	URL     string
}

// Status is the outcome of a release check
type Status struct {
	Current   string
	Latest    string
	HasUpdate bool
	// Cached is set when the answer came from the cache file rather than
	// from GitHub.
	Cached bool
}

// Checker compares the running version with the latest release, asking
// GitHub at most once per interval.
type Checker struct {
	cachePath string
	interval  time.Duration
	detect    func(slug string) (Release, bool, error)
	now       func() time.Time
}

// NewChecker returns a checker caching its answer in cacheDir
func NewChecker(cacheDir string, intervalDays int) *Checker {
	if intervalDays <= 0 {
		intervalDays = 1
	}
	return &Checker{
		cachePath: filepath.Join(cacheDir, cacheFile),
		interval:  time.Duration(intervalDays) * 24 * time.Hour,
		detect:    detectLatest,
		now:       time.Now,
	}
}

// Fresh makes the checker ignore cached answers. Fresh answers are still
// written to the cache.
func (c *Checker) Fresh() *Checker {
	c.interval = 0
	return c
}

// DefaultCacheDir returns ~/.cuprism
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cuprism"), nil
}

func detectLatest(slug string) (Release, bool, error) {
	latest, found, err := selfupdate.DetectLatest(slug)
	if err != nil || !found {
		return Release{}, false, err
	}
	return Release{Version: latest.Version.String(), URL: latest.URL}, true, nil
}

type checkCache struct {
	CheckedAt     time.Time `json:"checked_at"`
	LatestVersion string    `json:"latest_version,omitempty"`
}

// Check reports whether a release newer than current exists. Development
// builds are never reported as outdated.
func (c *Checker) Check(current string) (Status, error) {
	st := Status{Current: normalizeVersion(current)}
	if IsDevBuild(current) {
		return st, nil
	}

	if cache, ok := c.readCache(); ok && c.now().Sub(cache.CheckedAt) < c.interval {
		st.Latest = cache.LatestVersion
		st.Cached = true
	} else {
		release, found, err := c.detect(repoSlug)
		if err != nil {
			return st, err
		}
		if found {
			st.Latest = normalizeVersion(release.Version)
		}
		c.writeCache(checkCache{CheckedAt: c.now(), LatestVersion: st.Latest})
	}

	if st.Latest == "" {
		return st, nil
	}
	newer, err := IsNewer(st.Latest, st.Current)
	if err != nil {
		return st, err
	}
	st.HasUpdate = newer
	return st, nil
}

func (c *Checker) readCache() (checkCache, bool) {
	var cache checkCache
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return cache, false
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, false
	}
	return cache, true
}

func (c *Checker) writeCache(cache checkCache) {
	data, err := json.Marshal(cache)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		return
	}
	_ = os.WriteFile(c.cachePath, data, 0644)
}

// IsNewer reports whether latest is a higher semantic version than current
func IsNewer(latest, current string) (bool, error) {
	l, err := semver.Parse(normalizeVersion(latest))
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", latest, err)
	}
	c, err := semver.Parse(normalizeVersion(current))
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", current, err)
	}
	return l.GT(c), nil
}

// IsDevBuild reports whether version is not a release version
func IsDevBuild(version string) bool {
	v := normalizeVersion(version)
	if v == "" || v == "dev" {
		return true
	}
	_, err := semver.Parse(v)
	return err != nil
}

// Upgrade replaces the current binary with the latest release and returns
// the version installed.
func Upgrade(currentVersion string) (string, error) {
	v, err := semver.Parse(normalizeVersion(currentVersion))
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", currentVersion, err)
	}

	latest, err := selfupdate.UpdateSelf(v, repoSlug)
	if err != nil {
		return "", err
	}
	return latest.Version.String(), nil
}

// FallbackMessage returns the message shown when self-update fails
func FallbackMessage(reason error) string {
	return fmt.Sprintf(`Self-update failed: %v
To upgrade manually, run:
  curl -sSfL %s | sh`, reason, installScriptURL)
}

func normalizeVersion(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "v")
}
