// Package config builds the forwarder's and repository's runtime
// configuration from the environment (§6), with an optional YAML file
// layered on top for settings §6 doesn't expose as environment variables
// (face listen addresses, PIT sizing, registration lifetime), grounded on the teacher's
// environment-driven repository config plus the pack's gorilla/schema and
// goccy/go-yaml dependencies.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/gorilla/schema"

	"github.com/Atsuko87/ccnx-sub001/colog"
)

// Env holds every environment-variable-backed setting from §6, decoded via
// gorilla/schema the same way that package decodes an HTTP form: build a
// url.Values from os.Environ() and run it through schema.NewDecoder()
// against a struct tagged with the variable names.
type Env struct {
	CCNDirectory   string `schema:"CCNR_DIRECTORY"`
	CCNGlobalPrefix string `schema:"CCNR_GLOBAL_PREFIX"`
	CCNDebug       string `schema:"CCNR_DEBUG"`
	CCNLocalPort   int    `schema:"CCN_LOCAL_PORT"`
}

// PIT mirrors spec.md §9's open question on PIT sizing. MaxEntries is
// loaded and defaulted here, but pit.Table does not read it: the PIT has
// no size bound and no eviction.
type PIT struct {
	MaxEntries int `yaml:"max_entries"`
}

// Registration mirrors §4.10's configured lifetime maximum.
type Registration struct {
	MaxLifetime time.Duration `yaml:"max_lifetime"`
}

// Faces lists the transport listeners the forwarder daemon should bring
// up, e.g. "tcp://0.0.0.0:6363", "unix:///run/ccnfwd.sock",
// "udp://0.0.0.0:6363", "ws://0.0.0.0:9696". Only the tcp, unix, udp and
// ws schemes are accepted.
type Faces struct {
	Listen []string `yaml:"listen"`
}

// FileConfig is the optional YAML layer (§6 doesn't name a file format,
// but a daemon needs more structure than environment variables give it;
// this mirrors the teacher's own config.yml pattern in fw/core).
type FileConfig struct {
	PIT          PIT          `yaml:"pit"`
	Registration Registration `yaml:"registration"`
	Faces        Faces        `yaml:"faces"`
}

// Config is the fully resolved configuration: environment-sourced values
// plus the YAML layer, with defaults applied for anything neither
// supplied.
type Config struct {
	Directory    string
	GlobalPrefix string
	LogLevel     colog.Level
	LocalPort    int

	PIT          PIT
	Registration Registration
	Faces        Faces
}

const (
	DefaultLocalPort    = 4485
	DefaultMaxPitEntries = 65536
	DefaultRegMaxLifetime = time.Hour
)

// FromEnviron builds an Env from the process environment.
func FromEnviron() (*Env, error) {
	values := url.Values{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values.Set(parts[0], parts[1])
	}

	env := &Env{
		CCNDebug:     "INFO",
		CCNLocalPort: DefaultLocalPort,
	}
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	if err := dec.Decode(env, values); err != nil {
		return nil, fmt.Errorf("config: decoding environment: %w", err)
	}
	return env, nil
}

// Load resolves a Config from the environment plus an optional YAML file
// at yamlPath; an empty yamlPath or a missing file is not an error, every
// field simply keeps its default.
func Load(yamlPath string) (*Config, error) {
	env, err := FromEnviron()
	if err != nil {
		return nil, err
	}
	if env.CCNDirectory == "" {
		return nil, fmt.Errorf("config: CCNR_DIRECTORY must be set")
	}

	level, err := colog.ParseLevel(env.CCNDebug)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		Directory:    env.CCNDirectory,
		GlobalPrefix: env.CCNGlobalPrefix,
		LogLevel:     level,
		LocalPort:    env.CCNLocalPort,
		PIT:          PIT{MaxEntries: DefaultMaxPitEntries},
		Registration: Registration{MaxLifetime: DefaultRegMaxLifetime},
	}

	if yamlPath == "" {
		return cfg, nil
	}
	body, err := os.ReadFile(yamlPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", yamlPath, err)
	}

	var file FileConfig
	file.PIT = cfg.PIT
	file.Registration = cfg.Registration
	if err := yaml.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", yamlPath, err)
	}
	cfg.PIT = file.PIT
	cfg.Registration = file.Registration
	cfg.Faces = file.Faces
	return cfg, nil
}
