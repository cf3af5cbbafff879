// Package journal holds application-wide constants shared by the
// configuration and storage layers.
package journal

const (
	DefaultAppName      = "reminor"
	DefaultConfigPath   = "/etc/reminor"
	DefaultDataDir      = ".reminor"
	DefaultDatabaseFile = "journal.db"
)
