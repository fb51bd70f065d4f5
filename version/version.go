// Package version checks whether a newer release has been published.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/network"
	"github.com/seamui/seamui/util"
	"github.com/seamui/seamui/where"
)

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// ReleasesURL is the GitHub API endpoint of the latest release.
var ReleasesURL = "https://api.github.com/repos/" + constant.Repository + "/releases/latest"

// Latest returns the latest released version without the "v" prefix.
// The answer is cached for two days to stay clear of the GitHub rate limit.
func Latest(ctx context.Context) (string, error) {
	cached, expired, err := versionCacher.Get()
	if err == nil && !expired && cached != "" {
		return cached, nil
	}

	body, err := network.Get(ctx, nil, ReleasesURL)
	if err != nil {
		return "", err
	}
	defer util.Ignore(body.Close)

	var release struct {
		TagName string `json:"tag_name"`
	}

	if err = json.NewDecoder(body).Decode(&release); err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	_ = versionCacher.Set(latest)
	return latest, nil
}
