// Package update checks for newer quilt releases.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

const (
	// ReleasesURL is the GitHub endpoint for the latest quilt release.
	ReleasesURL = "https://api.github.com/repos/pthm/quilt/releases/latest"

	cacheTTL  = 24 * time.Hour
	cacheFile = "update-check.yaml"
)

// Info contains update check results.
type Info struct {
	LatestVersion   string    `json:"latest_version"`
	CurrentVersion  string    `json:"current_version"`
	CheckedAt       time.Time `json:"checked_at"`
	UpdateAvailable bool      `json:"update_available"`
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

// Checker looks up the latest release, remembering the answer for a day.
type Checker struct {
	// URL is the releases endpoint. Defaults to ReleasesURL.
	URL string

	// CacheDir holds the cached answer. Empty disables caching.
	CacheDir string

	Client *http.Client
}

// NewChecker returns a Checker against GitHub that caches under the user's
// cache directory.
func NewChecker() *Checker {
	dir, err := DefaultCacheDir()
	if err != nil {
		dir = ""
	}
	return &Checker{
		URL:      ReleasesURL,
		CacheDir: dir,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Check reports whether a release newer than current exists.
func (c *Checker) Check(ctx context.Context, current string) (*Info, error) {
	if info, err := c.load(); err == nil && time.Since(info.CheckedAt) < cacheTTL {
		info.CurrentVersion = current
		info.UpdateAvailable = compareVersions(current, info.LatestVersion) < 0
		return info, nil
	}

	latest, err := c.fetch(ctx, current)
	if err != nil {
		return nil, err
	}
	info := &Info{
		LatestVersion:   latest,
		CurrentVersion:  current,
		CheckedAt:       time.Now(),
		UpdateAvailable: compareVersions(current, latest) < 0,
	}

	_ = c.save(info)
	return info, nil
}

func (c *Checker) fetch(ctx context.Context, current string) (string, error) {
	url := c.URL
	if url == "" {
		url = ReleasesURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "quilt/"+current)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("decode release: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release has no tag")
	}
	return strings.TrimPrefix(release.TagName, "v"), nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/quilt, or ~/.cache/quilt.
func DefaultCacheDir() (string, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, "quilt"), nil
}

func (c *Checker) load() (*Info, error) {
	if c.CacheDir == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(filepath.Join(c.CacheDir, cacheFile))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Checker) save(info *Info) error {
	if c.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.CacheDir, cacheFile), data, 0o644)
}

// compareVersions compares two dotted versions, ignoring pre-release
// suffixes. Returns -1 if a < b, 0 if a == b, 1 if a > b. "dev" is newer
// than everything.
func compareVersions(a, b string) int {
	a = strings.TrimPrefix(a, "v")
	b = strings.TrimPrefix(b, "v")

	if a == "dev" {
		return 1
	}
	if b == "dev" {
		return -1
	}

	partsA := strings.Split(a, ".")
	partsB := strings.Split(b, ".")

	for i := 0; i < max(len(partsA), len(partsB)); i++ {
		numA, numB := versionPart(partsA, i), versionPart(partsB, i)
		if numA < numB {
			return -1
		}
		if numA > numB {
			return 1
		}
	}
	return 0
}

func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, _ := strconv.Atoi(strings.SplitN(parts[i], "-", 2)[0])
	return n
}
