// Package config loads and validates the updater configuration.
// The config is read once at startup, validated completely before any
// other component runs, and treated as immutable afterwards. Every field
// an init-system backend or backup step will need is checked here so a
// run can never fail mid-upgrade on a missing setting.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sys/unix"

	"github.com/xenago/ls-updater/internal/messages"
	"github.com/xenago/ls-updater/internal/service"
)

// DefaultPath is the config file the CLI loads when --config is not given.
const DefaultPath = "ls-updater.toml"

// Branches accepted for the branch setting, in the order they are
// documented.
var Branches = []string{"lts", "unstable", "dev"}

// ErrValidation is a sentinel wrapping config validation failures, as
// opposed to TOML syntax or filesystem errors. Callers can use
// errors.Is(err, ErrValidation) to tell the two apart.
var ErrValidation = errors.New("config validation failed")

// Config is the validated, immutable upgrade configuration.
type Config struct {
	Branch   string   `toml:"branch"`
	Database Database `toml:"database"`
	Install  Install  `toml:"install"`
	Service  Service  `toml:"web_server"`
	Logging  Logging  `toml:"logging"`
	Paths    Paths    `toml:"paths"`
}

// Database holds the connection parameters for the dump step.
type Database struct {
	Server       string `toml:"server"`
	Port         int    `toml:"port"`
	Name         string `toml:"name"`
	DefaultsFile string `toml:"defaults_file"`
}

// Install describes the managed install tree and the identity its files
// must end up owned by.
type Install struct {
	Path             string `toml:"path"`
	Owner            string `toml:"owner"`
	OctalPermissions string `toml:"octal_permissions"`
}

// Service names the init system and the service it manages.
type Service struct {
	InitSystem string `toml:"init_system"`
	Name       string `toml:"service"`
}

// Logging selects the log destinations.
type Logging struct {
	Stdout bool   `toml:"stdout"`
	Syslog bool   `toml:"syslog"`
	File   string `toml:"file"`
}

// Paths holds the working directories the updater writes outside the
// install tree.
type Paths struct {
	Downloads string `toml:"downloads"`
	Backups   string `toml:"backups"`
}

// Load reads, parses, and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigReadFmt, path, err)
	}
	return Parse(data, path)
}

// Parse parses and validates config TOML data.
// data is the TOML content; source is used in error messages.
func Parse(data []byte, source string) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidTOMLFmt, source, err)
	}
	if err := decodeStrict(data); err != nil {
		return nil, fmt.Errorf("%w: "+messages.ConfigUnrecognizedKeysFmt, ErrValidation, source, err)
	}
	cfg.applyDefaults()
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(source); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return &cfg, nil
}

// decodeStrict re-decodes the TOML data rejecting unknown fields, which
// toml.Unmarshal silently ignores.
func decodeStrict(data []byte) error {
	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(&cfg)
}

func (c *Config) applyDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Paths.Downloads == "" {
		c.Paths.Downloads = "ls_downloads"
	}
	if c.Paths.Backups == "" {
		c.Paths.Backups = "ls_backup"
	}
}

// expandPaths resolves ~ in every configured path.
func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Install.Path,
		&c.Database.DefaultsFile,
		&c.Paths.Downloads,
		&c.Paths.Backups,
		&c.Logging.File,
	} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf(messages.ConfigExpandPathFmt, *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the config is complete and consistent. source is used
// in error messages. Filesystem checks (install path existence and
// writability) run here so the orchestrator can assume them later.
func (c *Config) Validate(source string) error {
	if c.Branch == "" {
		return fmt.Errorf(messages.ConfigFieldRequiredFmt, source, "branch")
	}
	if !validBranch(c.Branch) {
		return fmt.Errorf(messages.ConfigBranchInvalidFmt, source, c.Branch, strings.Join(Branches, ", "))
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"database.server", c.Database.Server},
		{"database.name", c.Database.Name},
		{"database.defaults_file", c.Database.DefaultsFile},
		{"install.path", c.Install.Path},
		{"install.owner", c.Install.Owner},
		{"install.octal_permissions", c.Install.OctalPermissions},
		{"web_server.init_system", c.Service.InitSystem},
		{"web_server.service", c.Service.Name},
	} {
		if field.value == "" {
			return fmt.Errorf(messages.ConfigFieldRequiredFmt, source, field.name)
		}
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf(messages.ConfigPortInvalidFmt, source, c.Database.Port)
	}
	if !service.Supported(c.Service.InitSystem) {
		return fmt.Errorf(messages.ConfigInitSystemInvalidFmt, source, c.Service.InitSystem)
	}
	if _, _, err := SplitOwner(c.Install.Owner); err != nil {
		return fmt.Errorf(messages.ConfigOwnerInvalidFmt, source, c.Install.Owner, err)
	}
	if _, err := c.Mode(); err != nil {
		return fmt.Errorf(messages.ConfigPermissionsInvalidFmt, source, c.Install.OctalPermissions, err)
	}
	info, err := os.Stat(c.Install.Path)
	if err != nil {
		return fmt.Errorf(messages.ConfigInstallPathMissingFmt, source, c.Install.Path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf(messages.ConfigInstallPathNotDirFmt, source, c.Install.Path)
	}
	if err := unix.Access(c.Install.Path, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf(messages.ConfigInstallPathAccessFmt, source, c.Install.Path, err)
	}
	return nil
}

// Mode parses the configured octal permission mask.
func (c *Config) Mode() (os.FileMode, error) {
	parsed, err := strconv.ParseUint(c.Install.OctalPermissions, 8, 32)
	if err != nil {
		return 0, err
	}
	if parsed > 0o7777 {
		return 0, fmt.Errorf(messages.ConfigPermissionsRangeFmt, c.Install.OctalPermissions)
	}
	return os.FileMode(parsed), nil
}

// SplitOwner splits a user:group ownership spec.
func SplitOwner(spec string) (string, string, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New(messages.ConfigOwnerFormat)
	}
	return parts[0], parts[1], nil
}

func validBranch(branch string) bool {
	for _, b := range Branches {
		if b == branch {
			return true
		}
	}
	return false
}
