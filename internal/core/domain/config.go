package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Throttle channel identities, one per API generation.
const (
	ChannelV2 = "v2"
	ChannelV3 = "v3"
)

// Supported database engines.
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineMemory   = "memory"
)

// Config is the complete harvester configuration.
// Every recognised option and its default is enumerated here and in DefaultConfig.
type Config struct {
	Database DatabaseConfig
	GitHub   GitHubConfig
	Throttle map[string]ChannelLimit
	Harvest  HarvestConfig
	Miner    MinerToggles
	Log      LogConfig
}

// DatabaseConfig selects the graph store.
type DatabaseConfig struct {
	// Engine is one of sqlite, postgres, mysql or memory.
	Engine string
	// URL is the DSN or, for sqlite, the database file path.
	URL string
	// Options are passed through to the driver.
	Options map[string]string
}

// GitHubConfig configures the remote clients of both generations.
type GitHubConfig struct {
	Token   string
	BaseURL string
	// ProactiveRate caps requests/second in front of the API; 0 disables it.
	ProactiveRate float64
	// MinRemaining is the quota reserve below which the client waits for reset.
	MinRemaining int
}

// ChannelLimit is the admission budget of one throttle channel.
// MaxCalls <= 0 or Interval <= 0 disables throttling for the channel.
type ChannelLimit struct {
	MaxCalls int
	Interval time.Duration
}

// Enabled returns true if the limit actually throttles.
func (l ChannelLimit) Enabled() bool {
	return l.MaxCalls > 0 && l.Interval > 0
}

// HarvestConfig lists the targets and the refresh policy.
type HarvestConfig struct {
	// RefreshDays is the minimum age, in days, before a resource is fetched again.
	RefreshDays   float64
	Projects      []ProjectRef
	Users         []string
	Organizations []string
}

// MinAge converts RefreshDays to a duration. Zero means always refresh; ages
// beyond the range of time.Duration saturate at its maximum.
func (h HarvestConfig) MinAge() time.Duration {
	if !(h.RefreshDays > 0) {
		return 0
	}
	age := h.RefreshDays * float64(24*time.Hour)
	if age >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(age)
}

// MinerToggles switches individual harvesting phases on or off.
type MinerToggles struct {
	Repositories  bool
	Collaborators bool
	Contributors  bool
	Watchers      bool
	Forks         bool
	Issues        bool
	PullRequests  bool
	ProjectUsers  bool
	Users         bool
	Organizations bool
	Gists         bool
}

// AllMiners returns toggles with every phase enabled.
func AllMiners() MinerToggles {
	return MinerToggles{
		Repositories:  true,
		Collaborators: true,
		Contributors:  true,
		Watchers:      true,
		Forks:         true,
		Issues:        true,
		PullRequests:  true,
		ProjectUsers:  true,
		Users:         true,
		Organizations: true,
		Gists:         true,
	}
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultConfig returns the configuration used when a key is absent.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Options: map[string]string{},
		},
		GitHub: GitHubConfig{
			MinRemaining: 100,
		},
		Throttle: map[string]ChannelLimit{
			ChannelV2: {},
			ChannelV3: {},
		},
		Miner: AllMiners(),
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Validate checks the fatal configuration faults.
func (c Config) Validate() error {
	if c.Database.Engine == "" {
		return fmt.Errorf("%w: database.engine", ErrConfigMissing)
	}
	if c.Database.URL == "" && c.Database.Engine != EngineMemory {
		return fmt.Errorf("%w: database.url", ErrConfigMissing)
	}
	switch c.Database.Engine {
	case EngineSQLite, EnginePostgres, EngineMySQL, EngineMemory:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedEngine, c.Database.Engine)
	}
	if c.Database.Engine == EngineSQLite && isMemoryDSN(c.Database.URL) {
		return fmt.Errorf("%w: an in-memory sqlite database does not outlive its migrations, use engine = %q",
			ErrInvalidInput, EngineMemory)
	}
	if c.Harvest.RefreshDays < 0 || math.IsNaN(c.Harvest.RefreshDays) {
		return fmt.Errorf("%w: harvest.refresh_days must be a non-negative number", ErrInvalidInput)
	}
	return nil
}

func isMemoryDSN(url string) bool {
	return strings.Contains(url, ":memory:") || strings.Contains(url, "mode=memory")
}
