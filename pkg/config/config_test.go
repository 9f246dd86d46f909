package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "roots")
	p := writeConfig(t, "name: ${SAMPLE_NAME}\n")

	cfg := sample{Port: 8080}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "roots" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"parse", "name: [unclosed\n", "failed to parse"},
		{"validate", "port: 0\n", "config validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sample{Port: 1}
			err := Load(writeConfig(t, tt.content), &cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}

	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &sample{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	cfg := sample{Port: 7000}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	if err != nil || found {
		t.Fatalf("missing file: found=%v err=%v", found, err)
	}
	if cfg.Port != 7000 {
		t.Errorf("defaults changed: %+v", cfg)
	}

	bad := sample{}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &bad); err == nil {
		t.Error("defaults must still be validated")
	}

	found, err = LoadOptional(writeConfig(t, "debug: true\n"), &cfg)
	if err != nil || !found || !cfg.Debug {
		t.Errorf("found=%v err=%v cfg=%+v", found, err, cfg)
	}
}
