package project

import (
	"os"
	"path/filepath"
)

// Home resolves the LABt home directory: $LABT_HOME if set, else
// $HOME/.labt. Every cache, SDK, plugin, and repository-manifest path is
// rooted here.
func Home() (string, error) {
	if h := os.Getenv("LABT_HOME"); h != "" {
		return filepath.Abs(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".labt"), nil
}

// CacheDir, SDKDir, PluginsDir, and RepositoriesDir are the fixed
// subdirectories of the LABt home.
func CacheDir(home string) string        { return filepath.Join(home, "cache") }
func SDKDir(home string) string          { return filepath.Join(home, "sdk") }
func PluginsDir(home string) string      { return filepath.Join(home, "plugins") }
func RepositoriesDir(home string) string { return filepath.Join(home, "repositories") }
