package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/redbco/hana-backend/pkg/adapter"
	"github.com/redbco/hana-backend/pkg/hana"
	"github.com/redbco/hana-backend/pkg/logger"
)

// fileConfig is the on-disk shape of the CLI configuration.
type fileConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	Schema   string `yaml:"schema"`
	Debug    bool   `yaml:"debug,omitempty"`
}

// loadConfig merges the config file (if present) with command-line flags.
// Flags win over the file; the password is prompted for when neither
// provides one.
func loadConfig() (adapter.ConnectionConfig, error) {
	var fc fileConfig
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return adapter.ConnectionConfig{}, fmt.Errorf("parsing %s: %w", configFile, err)
		}
	} else if !os.IsNotExist(err) {
		return adapter.ConnectionConfig{}, err
	}

	cfg := adapter.ConnectionConfig{
		Host:       fc.Host,
		Port:       fc.Port,
		Username:   fc.User,
		Password:   fc.Password,
		SchemaName: fc.Schema,
		Debug:      fc.Debug || flagDebug,
	}
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagUser != "" {
		cfg.Username = flagUser
	}
	if flagSchema != "" {
		cfg.SchemaName = flagSchema
	}

	if cfg.Password == "" {
		pw, err := promptPassword(cfg.Username)
		if err != nil {
			return adapter.ConnectionConfig{}, err
		}
		cfg.Password = pw
	}
	return cfg, nil
}

func promptPassword(user string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", user)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// withConnection loads the configuration, connects, and runs fn with the
// live connection. The connection is closed on return.
func withConnection(fn func(ctx context.Context, conn *hana.Connection) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New("hanactl", Version)
	log.SetDebug(cfg.Debug)

	ctx := context.Background()
	conn, err := hana.Connect(ctx, cfg, hana.WithLogger(log))
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, conn)
}
