package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the pcmogg directory structure
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// BaseDir returns the base directory (~/.pcmogg)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.pcmogg/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns the config file path (~/.pcmogg/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// DataDir returns the data directory (~/.pcmogg/<app>/data)
func (p *Paths) DataDir() string {
	return filepath.Join(p.AppDir(), "data")
}

// JournalDir returns the session journal database (~/.pcmogg/<app>/data/journal)
func (p *Paths) JournalDir() string {
	return filepath.Join(p.DataDir(), "journal")
}

// ArchiveDir returns the default session archive (~/.pcmogg/<app>/data/archive)
func (p *Paths) ArchiveDir() string {
	return filepath.Join(p.DataDir(), "archive")
}

// EnsureDataDir creates the data directory if it doesn't exist
func (p *Paths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir(), 0755)
}
