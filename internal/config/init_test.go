package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/ctxrepo/internal/utils"
)

func TestInitializeConfigurationCreatesLoadableLocalFile(t *testing.T) {
	workingDirectory := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))

	path, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal})
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	if expectedPath := filepath.Join(workingDirectory, utils.ConfigFileName); path != expectedPath {
		t.Fatalf("expected path %s, got %s", expectedPath, path)
	}

	loaded, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	if loaded.Scan.Tokens.Model != "gpt-4o" || loaded.Serve.RepositoriesDirectory != "cloned_repos" {
		t.Fatalf("unexpected defaults: %+v", loaded)
	}
	if loaded.Scan.Paths.UseGitignore == nil || *loaded.Scan.Paths.UseGitignore {
		t.Fatalf("expected use_gitignore to be explicitly false")
	}
}

func TestInitializeConfigurationHonorsGlobalTarget(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	path, err := InitializeConfiguration(InitOptions{Target: InitTargetGlobal})
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	if expected := filepath.Join(homeDir, utils.GlobalConfigDirectoryName, utils.ConfigFileName); path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("expected file to exist at %s: %v", path, statErr)
	}
}

func TestInitializeConfigurationPreventsOverwriteWithoutForce(t *testing.T) {
	workingDirectory := t.TempDir()
	path := filepath.Join(workingDirectory, utils.ConfigFileName)
	if err := os.WriteFile(path, []byte("existing"), 0o600); err != nil {
		t.Fatalf("write seed config: %v", err)
	}
	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory}); err == nil {
		t.Fatalf("expected error when configuration already exists")
	}
	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Force: true}); err != nil {
		t.Fatalf("forced initialization failed: %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != DefaultConfiguration() {
		t.Fatalf("forced initialization did not overwrite the file")
	}
}

func TestInitializeConfigurationRejectsUnknownTarget(t *testing.T) {
	if _, err := InitializeConfiguration(InitOptions{Target: "remote"}); err == nil {
		t.Fatalf("expected unsupported target error")
	}
}
