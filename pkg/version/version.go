// Package version reports build information and checks for newer releases.
package version

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	runtime "runtime/debug"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
)

const releasesURL = "https://api.github.com/repos/%s/%s/releases/latest"

var (
	Version string
	Commit  string
	Date    string
	BuiltBy string
)

func init() {
	info, ok := runtime.ReadBuildInfo()
	settings := map[string]string{}
	if ok {
		for _, setting := range info.Settings {
			settings[setting.Key] = setting.Value
		}
	}

	if Version == "" {
		Version = "dev"
		if ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
	}
	if Commit == "" {
		Commit = orDefault(settings["vcs.revision"], "none")
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
	}
	if Date == "" {
		Date = orDefault(settings["vcs.time"], "unknown")
	}
	if BuiltBy == "" {
		BuiltBy = settings["vcs.username"]
		if BuiltBy == "" {
			BuiltBy = gitUser()
		}
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func gitUser() string {
	output, err := exec.Command("git", "config", "--get", "user.name").Output()
	if err == nil && len(output) > 0 {
		return strings.TrimSpace(string(output))
	}
	return "unknown"
}

// IsNewer reports whether latest is a newer release than current. Tags
// that are not semantic versions are never considered newer.
func IsNewer(current, latest string) bool {
	latestVer, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}
	currentVer, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return latestVer.GreaterThan(currentVer)
}

// CheckForUpdates checks GitHub for the latest release version and logs the results
func CheckForUpdates(org, repo string) error {
	log.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("buildDate", Date).
		Str("builtBy", BuiltBy).
		Msg("daemonctl version info")

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest("GET", fmt.Sprintf(releasesURL, org, repo), nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create request")
		return nil
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", repo, Version))

	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check for updates")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Str("status", resp.Status).Msg("GitHub API request failed")
		return nil
	}

	var release struct {
		TagName     string    `json:"tag_name"`
		PublishedAt time.Time `json:"published_at"`
		HTMLURL     string    `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		log.Warn().Err(err).Msg("failed to parse GitHub response")
		return nil
	}

	latestVersion := strings.TrimPrefix(release.TagName, "v")

	if Version == "dev" {
		log.Info().
			Str("latestRelease", latestVersion).
			Time("publishedAt", release.PublishedAt).
			Msg("running development version")
		return nil
	}

	if IsNewer(Version, latestVersion) {
		log.Info().
			Str("current", Version).
			Str("latest", latestVersion).
			Time("publishedAt", release.PublishedAt).
			Str("updateUrl", release.HTMLURL).
			Msg("update available")
	} else {
		log.Info().
			Time("publishedAt", release.PublishedAt).
			Msg("you are running the latest version")
	}

	return nil
}
