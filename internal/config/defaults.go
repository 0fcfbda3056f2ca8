package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Patterns: PatternsConfig{
			Constants: "CL_.*",
			Functions: "cl[A-Z].*",
		},
		FrontEnd: FrontEndConfig{
			Language:          "auto",
			Defines:           []string{},
			IgnoreIdentifiers: []string{},
			Exclude:           []string{},
		},
		Render: RenderConfig{
			Indentation: 2,
		},
		Output: OutputConfig{
			Constants:      "-",
			Declarations:   "-",
			ManifestFormat: "yaml",
		},
		Cache: CacheConfig{
			Path: ".headercvt/cache.db",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Patterns = mergePatternsConfig(loaded.Patterns, defaults.Patterns)
	result.FrontEnd = mergeFrontEndConfig(loaded.FrontEnd, defaults.FrontEnd)
	result.Render = mergeRenderConfig(loaded.Render, defaults.Render)
	result.Output = mergeOutputConfig(loaded.Output, defaults.Output)
	result.Cache = mergeCacheConfig(loaded.Cache, defaults.Cache)

	return result
}

func mergePatternsConfig(loaded, defaults PatternsConfig) PatternsConfig {
	return PatternsConfig{
		Constants: mergeString(loaded.Constants, defaults.Constants),
		Functions: mergeString(loaded.Functions, defaults.Functions),
	}
}

func mergeFrontEndConfig(loaded, defaults FrontEndConfig) FrontEndConfig {
	return FrontEndConfig{
		Language:          mergeString(loaded.Language, defaults.Language),
		Defines:           mergeList(loaded.Defines, defaults.Defines),
		IgnoreIdentifiers: mergeList(loaded.IgnoreIdentifiers, defaults.IgnoreIdentifiers),
		Exclude:           mergeList(loaded.Exclude, defaults.Exclude),
		// Booleans default to false, so the loaded value always wins
		KeepGoing: loaded.KeepGoing,
	}
}

func mergeRenderConfig(loaded, defaults RenderConfig) RenderConfig {
	result := RenderConfig{
		FullyQualifiedNames: loaded.FullyQualifiedNames,
		FunctionSpecifiers:  loaded.FunctionSpecifiers,
	}

	// Indentation: use loaded if non-zero
	if loaded.Indentation != 0 {
		result.Indentation = loaded.Indentation
	} else {
		result.Indentation = defaults.Indentation
	}

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	return OutputConfig{
		Constants:      mergeString(loaded.Constants, defaults.Constants),
		Declarations:   mergeString(loaded.Declarations, defaults.Declarations),
		Manifest:       mergeString(loaded.Manifest, defaults.Manifest),
		ManifestFormat: mergeString(loaded.ManifestFormat, defaults.ManifestFormat),
	}
}

func mergeCacheConfig(loaded, defaults CacheConfig) CacheConfig {
	return CacheConfig{
		Enabled: loaded.Enabled,
		Path:    mergeString(loaded.Path, defaults.Path),
	}
}

// mergeString uses loaded if non-empty
func mergeString(loaded, def string) string {
	if loaded != "" {
		return loaded
	}
	return def
}

// mergeList uses loaded lists if provided, otherwise defaults
func mergeList(loaded, def []string) []string {
	if len(loaded) > 0 {
		return loaded
	}
	return def
}

// ValidLanguages lists the valid values for front_end.language
var ValidLanguages = []string{"auto", "c", "cpp"}

// IsValidLanguage checks if the given header language is valid
func IsValidLanguage(lang string) bool {
	return contains(ValidLanguages, lang)
}

// ValidManifestFormats lists the valid values for output.manifest_format
var ValidManifestFormats = []string{"yaml", "json"}

// IsValidManifestFormat checks if the given manifest format is valid
func IsValidManifestFormat(format string) bool {
	return contains(ValidManifestFormats, format)
}

func contains(values []string, v string) bool {
	for _, valid := range values {
		if v == valid {
			return true
		}
	}
	return false
}
