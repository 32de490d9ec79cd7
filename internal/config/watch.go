package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Watch reloads the environment map whenever the config file changes and
// reports each reload to onReload. It is a no-op without a config file.
func (c *Config) Watch(onReload func(event fsnotify.Event, err error)) bool {
	if c.ConfigFile() == "" {
		return false
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		err := c.ReloadEnvironments()
		if onReload != nil {
			onReload(e, err)
		}
	})
	c.v.WatchConfig()
	return true
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if fileExists(f) {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
