package main

import (
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

type ProgramConfig struct {
	Deployer string `toml:"deployer"`
}

type StoreConfig struct {
	Dir        string `toml:"dir"`
	SyncWrites bool   `toml:"sync-writes"`
}

type APIConfig struct {
	Listen   string        `toml:"listen"`
	CacheTTL time.Duration `toml:"cache-ttl"`
}

type Configuration struct {
	Program ProgramConfig `toml:"program"`
	Store   StoreConfig   `toml:"store"`
	API     APIConfig     `toml:"api"`
	Keypair string        `toml:"keypair"`
}

func DefaultConfiguration() *Configuration {
	return &Configuration{
		Store: StoreConfig{SyncWrites: true},
		API:   APIConfig{Listen: ":7080", CacheTTL: 10 * time.Minute},
	}
}

// Setup reads the configuration at path, falling back to the defaults when
// the file does not exist.
func Setup(path string) (*Configuration, error) {
	conf := DefaultConfiguration()
	f, err := os.ReadFile(expandPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return conf, nil
	} else if err != nil {
		return nil, err
	}
	err = toml.Unmarshal(f, conf)
	if err != nil {
		return nil, err
	}
	if conf.API.Listen == "" {
		conf.API.Listen = DefaultConfiguration().API.Listen
	}
	if conf.API.CacheTTL <= 0 {
		conf.API.CacheTTL = DefaultConfiguration().API.CacheTTL
	}
	conf.Store.Dir = expandPath(conf.Store.Dir)
	conf.Keypair = expandPath(conf.Keypair)
	return conf, nil
}

func expandPath(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	usr, err := user.Current()
	if err != nil {
		return p
	}
	return filepath.Join(usr.HomeDir, p[2:])
}
