// Package config holds the application defaults and the optional TOML
// project file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/service"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultProjectName labels dashboards and reports.
	DefaultProjectName = "IIMC Amravati"

	// DefaultProjectStart and DefaultProjectEnd bound the project schedule.
	DefaultProjectStart = "2025-03-28"
	DefaultProjectEnd   = "2027-07-31"

	// DefaultMaxConns and DefaultMinConns size the database pool.
	DefaultMaxConns = 10
	DefaultMinConns = 2
)

// Config is the TOML project file.
//
//	port = "8080"
//	log_level = "debug"
//
//	[database]
//	url = "postgres://..."
//	max_conns = 10
//
//	[project]
//	name = "IIMC Amravati"
//	start = "2025-03-28"
//	end = "2027-07-31"
//
//	[project.phases]
//	auditorium = "Auditorium Block"
type Config struct {
	Port     string         `toml:"port"`
	LogLevel string         `toml:"log_level"`
	Database DatabaseConfig `toml:"database"`
	Project  ProjectConfig  `toml:"project"`
}

// DatabaseConfig configures the PostgreSQL connection pool.
type DatabaseConfig struct {
	URL      string `toml:"url"`
	MaxConns int32  `toml:"max_conns"`
	MinConns int32  `toml:"min_conns"`
}

// ProjectConfig describes the tracked project.
type ProjectConfig struct {
	Name   string            `toml:"name"`
	Start  string            `toml:"start"`
	End    string            `toml:"end"`
	Phases map[string]string `toml:"phases"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:     DefaultPort,
		LogLevel: DefaultLogLevel,
		Database: DatabaseConfig{
			URL:      DefaultDatabaseURL,
			MaxConns: DefaultMaxConns,
			MinConns: DefaultMinConns,
		},
		Project: ProjectConfig{
			Name:  DefaultProjectName,
			Start: DefaultProjectStart,
			End:   DefaultProjectEnd,
			Phases: map[string]string{
				string(domain.PhasePreConstruction): "Pre-Construction",
				string(domain.PhaseAdminAcademic):   "Admin & Academic Block",
				string(domain.PhaseAuditorium):      "Auditorium Block",
				string(domain.PhaseResidential):     "Residential Quarters & Hostels",
				string(domain.PhaseExternal):        "External Development",
			},
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := toml.Unmarshal(data, &file); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("parse config %s at %d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.merge(&file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// merge overlays non-zero values of other onto c.
func (c *Config) merge(other *Config) {
	if other.Port != "" {
		c.Port = other.Port
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Database.URL != "" {
		c.Database.URL = other.Database.URL
	}
	if other.Database.MaxConns > 0 {
		c.Database.MaxConns = other.Database.MaxConns
	}
	if other.Database.MinConns > 0 {
		c.Database.MinConns = other.Database.MinConns
	}
	if other.Project.Name != "" {
		c.Project.Name = other.Project.Name
	}
	if other.Project.Start != "" {
		c.Project.Start = other.Project.Start
	}
	if other.Project.End != "" {
		c.Project.End = other.Project.End
	}
	for phase, name := range other.Project.Phases {
		c.Project.Phases[phase] = name
	}
}

// Validate checks the project window and phase keys.
func (c *Config) Validate() error {
	start, err := domain.ParseDate(c.Project.Start)
	if err != nil {
		return fmt.Errorf("project start: %w", err)
	}
	end, err := domain.ParseDate(c.Project.End)
	if err != nil {
		return fmt.Errorf("project end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("project end %s is before start %s", c.Project.End, c.Project.Start)
	}
	for phase := range c.Project.Phases {
		if !domain.Phase(phase).IsValid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidPhase, phase)
		}
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database min_conns %d exceeds max_conns %d", c.Database.MinConns, c.Database.MaxConns)
	}
	return nil
}

// ProjectInfo converts the project section for the service layer.
// The configuration must have passed Validate.
func (c *Config) ProjectInfo() service.ProjectInfo {
	start, _ := domain.ParseDate(c.Project.Start)
	end, _ := domain.ParseDate(c.Project.End)

	phases := make(map[domain.Phase]string, len(c.Project.Phases))
	for phase, name := range c.Project.Phases {
		phases[domain.Phase(phase)] = name
	}

	return service.ProjectInfo{
		Name:       c.Project.Name,
		Start:      start,
		End:        end,
		PhaseNames: phases,
	}
}
