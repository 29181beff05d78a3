// Package rules compiles pattern-kind rule configs from CUE into the
// typed configuration the engine consumes.
//
// A rules file declares, per kind, whether the kind is unlocked and how
// large a connected group must be:
//
//	rules: {
//		match:     {enabled: true, min_group: 3}
//		merge:     {enabled: false, min_group: 3}
//		transmute: {enabled: false, min_group: 5}
//	}
//
// Kind priorities are fixed by the engine (transmute > merge > match)
// and are not configurable; enablement is progression state owned by the
// host. A partial rules file overrides only the kinds it names.
package rules

import (
	"github.com/roach88/cascade/internal/pattern"
)

// KindConfig is the compiled configuration for one pattern kind.
type KindConfig struct {
	Kind     pattern.Kind
	Enabled  bool
	MinGroup int
}

// Config holds the compiled configuration for the closed kind set.
// Config implements pattern.Gate.
type Config struct {
	kinds map[pattern.Kind]KindConfig
}

// Default returns the engine's default configuration: match enabled,
// merge and transmute locked.
func Default() *Config {
	return &Config{kinds: map[pattern.Kind]KindConfig{
		pattern.KindMatch: {
			Kind:     pattern.KindMatch,
			Enabled:  true,
			MinGroup: pattern.MinMatchGroup,
		},
		pattern.KindMerge: {
			Kind:     pattern.KindMerge,
			Enabled:  false,
			MinGroup: pattern.MinMergeGroup,
		},
		pattern.KindTransmute: {
			Kind:     pattern.KindTransmute,
			Enabled:  false,
			MinGroup: pattern.MinTransmuteGroup,
		},
	}}
}

// Enabled implements pattern.Gate.
func (c *Config) Enabled(k pattern.Kind) bool {
	return c.kinds[k].Enabled
}

// Kind returns the configuration for a kind.
func (c *Config) Kind(k pattern.Kind) (KindConfig, bool) {
	kc, ok := c.kinds[k]
	return kc, ok
}

// SetEnabled flips a kind's unlock state. Host-side progression hook.
func (c *Config) SetEnabled(k pattern.Kind, enabled bool) {
	kc, ok := c.kinds[k]
	if !ok {
		return
	}
	kc.Enabled = enabled
	c.kinds[k] = kc
}

// Recognizers builds one recognizer per configured kind, in priority
// order lowest first. Enablement is not applied here - the processor
// consults the Gate at recognition time, so unlocking a kind mid-session
// needs no rebuild.
func (c *Config) Recognizers() []pattern.Recognizer {
	var out []pattern.Recognizer
	for _, k := range pattern.Kinds() {
		kc := c.kinds[k]
		switch k {
		case pattern.KindMatch:
			out = append(out, pattern.NewMatchRecognizerWithMin(kc.MinGroup))
		case pattern.KindMerge:
			out = append(out, pattern.NewMergeRecognizerWithMin(kc.MinGroup))
		case pattern.KindTransmute:
			out = append(out, pattern.NewTransmuteRecognizerWithMin(kc.MinGroup))
		}
	}
	return out
}
