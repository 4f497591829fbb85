package utils

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion = "unknown"
	develVersion   = "(devel)"
)

// Version is set at build time with -ldflags "-X github.com/temirov/ctxrepo/internal/utils.Version=...".
var Version string

// GetApplicationVersion resolves the application version from the linker flag,
// the module build information, or git describe in the enclosing checkout.
func GetApplicationVersion() string {
	if strings.TrimSpace(Version) != "" {
		return Version
	}
	if buildInfo, available := debug.ReadBuildInfo(); available {
		mainVersion := buildInfo.Main.Version
		if mainVersion != "" && mainVersion != develVersion {
			return mainVersion
		}
	}

	checkoutDirectory, lookupError := findCheckoutDirectory(".")
	if lookupError != nil {
		return unknownVersion
	}
	describeArgumentSets := [][]string{
		{"describe", "--tags", "--exact-match"},
		{"describe", "--tags", "--long", "--dirty"},
	}
	for _, describeArguments := range describeArgumentSets {
		// #nosec G204
		describeCommand := exec.Command("git", describeArguments...)
		describeCommand.Dir = checkoutDirectory
		describeOutput, describeError := describeCommand.Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}

// findCheckoutDirectory walks upward from startDirectory to the first directory holding a .git folder.
func findCheckoutDirectory(startDirectory string) (string, error) {
	currentDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", absoluteError
	}
	for {
		if fileInformation, statError := os.Stat(filepath.Join(currentDirectory, GitDirectoryName)); statError == nil && fileInformation.IsDir() {
			return currentDirectory, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", errors.New("no git checkout above " + startDirectory)
		}
		currentDirectory = parentDirectory
	}
}
