package file

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/logger"
)

// TokenEnv is consulted when github.token is absent.
const TokenEnv = "GITHUB_TOKEN"

// fileConfig mirrors the TOML layout. Pointer and interface fields tell an
// absent key from an explicit zero value.
type fileConfig struct {
	Database databaseSection           `toml:"database"`
	GitHub   githubSection             `toml:"github"`
	Throttle map[string]channelSection `toml:"throttle"`
	Harvest  harvestSection            `toml:"harvest"`
	Miner    minerSection              `toml:"miner"`
	Log      logSection                `toml:"log"`
}

type databaseSection struct {
	Engine  string            `toml:"engine"`
	URL     string            `toml:"url"`
	Options map[string]string `toml:"options"`
}

type githubSection struct {
	Token         string  `toml:"token"`
	BaseURL       string  `toml:"base_url"`
	ProactiveRate float64 `toml:"proactive_rate"`
	MinRemaining  *int    `toml:"min_remaining"`
}

type channelSection struct {
	MaxCalls int   `toml:"maxCalls"`
	Interval int64 `toml:"maxCallsInterval"`
}

type harvestSection struct {
	RefreshDays   any `toml:"refresh_days"`
	Projects      any `toml:"projects"`
	Users         any `toml:"users"`
	Organizations any `toml:"organizations"`
}

type minerSection struct {
	Repositories  *bool `toml:"repositories"`
	Collaborators *bool `toml:"collaborators"`
	Contributors  *bool `toml:"contributors"`
	Watchers      *bool `toml:"watchers"`
	Forks         *bool `toml:"forks"`
	Issues        *bool `toml:"issues"`
	PullRequests  *bool `toml:"pullrequests"`
	ProjectUsers  *bool `toml:"project_users"`
	Users         *bool `toml:"users"`
	Organizations *bool `toml:"organizations"`
	Gists         *bool `toml:"gists"`
}

type logSection struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultPath returns ~/.ghminer/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".ghminer", "config.toml"), nil
}

// Load reads the configuration file at path. A missing file yields the
// defaults, which fail validation for lack of a database.
func Load(path string) (domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("Configuration file %s not found, using defaults", path)
			return Parse(nil)
		}
		return domain.Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a TOML document into a Config. Unknown keys are rejected.
// Absent lists are logged and left empty; malformed projects are dropped.
func Parse(data []byte) (domain.Config, error) {
	var fc fileConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return domain.Config{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return domain.Config{}, fmt.Errorf("%w: line %d column %d: %s",
				domain.ErrInvalidInput, row, col, decodeErr.Error())
		}
		return domain.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return fc.toDomain()
}

func (fc fileConfig) toDomain() (domain.Config, error) {
	cfg := domain.DefaultConfig()

	cfg.Database.Engine = strings.ToLower(strings.TrimSpace(fc.Database.Engine))
	cfg.Database.URL = strings.TrimSpace(fc.Database.URL)
	for k, v := range fc.Database.Options {
		cfg.Database.Options[k] = v
	}

	cfg.GitHub.Token = fc.GitHub.Token
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv(TokenEnv)
	}
	cfg.GitHub.BaseURL = fc.GitHub.BaseURL
	cfg.GitHub.ProactiveRate = fc.GitHub.ProactiveRate
	if fc.GitHub.MinRemaining != nil {
		cfg.GitHub.MinRemaining = *fc.GitHub.MinRemaining
	}

	for id, ch := range fc.Throttle {
		cfg.Throttle[id] = domain.ChannelLimit{
			MaxCalls: ch.MaxCalls,
			Interval: millis(ch.Interval),
		}
	}

	switch days := fc.Harvest.RefreshDays.(type) {
	case nil:
	case int64:
		cfg.Harvest.RefreshDays = float64(days)
	case float64:
		cfg.Harvest.RefreshDays = days
	default:
		return domain.Config{}, fmt.Errorf("%w: harvest.refresh_days must be a number, got %T",
			domain.ErrInvalidInput, days)
	}
	projects, err := stringList("harvest.projects", fc.Harvest.Projects)
	if err != nil {
		return domain.Config{}, err
	}
	for _, p := range projects {
		ref, err := domain.ParseProjectRef(p)
		if err != nil {
			logger.Warn("Ignoring project %q: %v", p, err)
			continue
		}
		cfg.Harvest.Projects = append(cfg.Harvest.Projects, ref)
	}
	if cfg.Harvest.Users, err = stringList("harvest.users", fc.Harvest.Users); err != nil {
		return domain.Config{}, err
	}
	if cfg.Harvest.Organizations, err = stringList("harvest.organizations", fc.Harvest.Organizations); err != nil {
		return domain.Config{}, err
	}

	m := fc.Miner
	cfg.Miner = domain.MinerToggles{
		Repositories:  enabled(m.Repositories),
		Collaborators: enabled(m.Collaborators),
		Contributors:  enabled(m.Contributors),
		Watchers:      enabled(m.Watchers),
		Forks:         enabled(m.Forks),
		Issues:        enabled(m.Issues),
		PullRequests:  enabled(m.PullRequests),
		ProjectUsers:  enabled(m.ProjectUsers),
		Users:         enabled(m.Users),
		Organizations: enabled(m.Organizations),
		Gists:         enabled(m.Gists),
	}

	if fc.Log.Level != "" {
		cfg.Log.Level = fc.Log.Level
	}
	if fc.Log.Format != "" {
		cfg.Log.Format = fc.Log.Format
	}
	return cfg, nil
}

// stringList accepts a comma-separated string or an array of strings.
// An absent key logs a warning and yields an empty list.
func stringList(key string, raw any) ([]string, error) {
	var items []string
	switch v := raw.(type) {
	case nil:
		logger.Warn("No %s configured", key)
		return []string{}, nil
	case string:
		items = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must hold strings, got %T", domain.ErrInvalidInput, key, item)
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("%w: %s must be a string or an array, got %T", domain.ErrInvalidInput, key, raw)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

// millis converts a millisecond count, saturating at the largest duration.
func millis(ms int64) time.Duration {
	if ms > int64(math.MaxInt64/time.Millisecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

func enabled(toggle *bool) bool {
	return toggle == nil || *toggle
}

// WriteDefault writes a commented starter configuration to path. An existing
// file is left alone.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating config: %w", err)
	}
	if _, err := f.WriteString(starterConfig()); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	return f.Close()
}

func starterConfig() string {
	var b strings.Builder
	b.WriteString("# ghminer configuration\n\n")
	b.WriteString("[database]\nengine = \"sqlite\"\nurl = \"ghminer.db\"\n\n")
	b.WriteString("[github]\n# token = \"\"  # defaults to $" + TokenEnv + "\nmin_remaining = 100\n\n")

	for _, id := range []string{domain.ChannelV2, domain.ChannelV3} {
		b.WriteString("[throttle." + id + "]\nmaxCalls = 0\nmaxCallsInterval = 0\n\n")
	}

	b.WriteString("[harvest]\nrefresh_days = 1\nprojects = []\nusers = []\norganizations = []\n\n")
	b.WriteString("[miner]\n")
	for _, key := range []string{
		"repositories", "collaborators", "contributors", "watchers", "forks", "issues",
		"pullrequests", "project_users", "users", "organizations", "gists",
	} {
		b.WriteString(key + " = true\n")
	}
	b.WriteString("\n[log]\nlevel = \"info\"\nformat = \"auto\"\n")
	return b.String()
}
