package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hargabyte/headercvt/internal/config"
)

// loadConfig loads the configuration named by --config, or the one found
// by walking up from the working directory. A relative cache path is
// resolved against the directory that holds .headercvt.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromPath(configPath)
		if err != nil {
			return nil, err
		}
		projectRoot := filepath.Dir(configPath)
		if filepath.Base(projectRoot) == config.ConfigDirName {
			projectRoot = filepath.Dir(projectRoot)
		}
		resolveCachePath(cfg, projectRoot)
		return cfg, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}

	projectRoot := cwd
	if dir, err := config.FindConfigDir(cwd); err == nil {
		projectRoot = filepath.Dir(dir)
		logf("Using config from %s\n", dir)
	}
	resolveCachePath(cfg, projectRoot)
	return cfg, nil
}

func resolveCachePath(cfg *config.Config, projectRoot string) {
	if cfg.Cache.Path != "" && !filepath.IsAbs(cfg.Cache.Path) {
		cfg.Cache.Path = filepath.Join(projectRoot, cfg.Cache.Path)
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
