package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/joeandaverde/pickaxe/serial"
	"github.com/joeandaverde/pickaxe/storage"
)

// Config holds the settings shared by every command. Values come from an
// optional YAML file and are overridden by flags.
type Config struct {
	PageSize  uint64       `yaml:"page_size"`
	Alignment uint64       `yaml:"alignment"`
	Storage   string       `yaml:"storage"`
	Type      string       `yaml:"type"`
	LogLevel  logrus.Level `yaml:"log_level"`
}

func defaultConfig() *Config {
	return &Config{
		PageSize: 4096,
		Storage:  "os",
		Type:     "u32",
		LogLevel: logrus.InfoLevel,
	}
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}

	configFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer configFile.Close()

	if err := yaml.NewDecoder(configFile).Decode(config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// commonFlags are the flags every command accepts.
type commonFlags struct {
	configPath string
	pageSize   uint64
	alignment  uint64
	storage    string
	valueType  string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "config file")
	fs.Uint64Var(&f.pageSize, "page-size", 0, "reader page size in bytes")
	fs.Uint64Var(&f.alignment, "align", 0, "value alignment, 0 for the type's own")
	fs.StringVar(&f.storage, "storage", "", "storage backend: os or mmap")
	fs.StringVar(&f.valueType, "type", "", "value type")
}

// resolve loads the config file and applies the flags that were set.
func (f *commonFlags) resolve(fs *flag.FlagSet) (*Config, error) {
	config, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "page-size":
			config.PageSize = f.pageSize
		case "align":
			config.Alignment = f.alignment
		case "storage":
			config.Storage = f.storage
		case "type":
			config.Type = f.valueType
		}
	})

	if config.PageSize == 0 {
		return nil, &serial.InvalidPageSizeError{Size: 0}
	}
	return config, nil
}

func (c *Config) opener() (storage.Opener, error) {
	switch c.Storage {
	case "", "os":
		return storage.OS, nil
	case "mmap":
		return storage.Mapped, nil
	default:
		return nil, fmt.Errorf("unknown storage %q", c.Storage)
	}
}

func (c *Config) logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(c.LogLevel)
	return logger
}

// options builds the serial options for this config.
func (c *Config) options() ([]serial.Option, error) {
	opener, err := c.opener()
	if err != nil {
		return nil, err
	}
	return []serial.Option{
		serial.WithStorage(opener),
		serial.WithLogger(c.logger()),
	}, nil
}
