package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var validBackends = map[string]struct{}{
	"auto":   {},
	"metal":  {},
	"cuda":   {},
	"vulkan": {},
	"cpu":    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if _, ok := validBackends[c.Engine.Backend]; !ok {
		return fmt.Errorf("engine.backend must be one of auto, metal, cuda, vulkan, cpu (got %q)", c.Engine.Backend)
	}
	if c.Engine.Language != "auto" {
		if _, err := language.Parse(c.Engine.Language); err != nil {
			return fmt.Errorf("engine.language %q is not a valid language code: %w", c.Engine.Language, err)
		}
	}
	if !strings.HasPrefix(c.Engine.RegistryURL, "http://") && !strings.HasPrefix(c.Engine.RegistryURL, "https://") {
		return fmt.Errorf("engine.registry_url must be an http(s) URL (got %q)", c.Engine.RegistryURL)
	}
	return nil
}

func (c *Config) validateAlignment() error {
	for name, value := range map[string]float64{
		"alignment.match_threshold":         c.Alignment.MatchThreshold,
		"alignment.synthetic_confidence":    c.Alignment.SyntheticConfidence,
		"alignment.interpolated_confidence": c.Alignment.InterpolatedConfidence,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.MinTextChars < 0 {
		return errors.New("extraction.min_text_chars must not be negative")
	}
	return nil
}
