// Package config holds the mipsdis settings. Values come from MIPSDIS_*
// environment variables and are overridden by command line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xyproto/env/v2"

	"mipsdis/internal/mips"
)

// Config represents configuration for the mipsdis tool
type Config struct {
	Debug       bool   `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	NoColor     bool   `json:"noColor" jsonschema:"title=No Color,description=Disable syntax highlighting"`
	Theme       string `json:"theme" jsonschema:"title=Theme,description=Markdown theme for headers,enum=vscode,enum=charm"`
	Arch        string `json:"arch" jsonschema:"title=Architecture,description=Decoder variant; auto follows the ELF header,enum=auto,enum=mips32,enum=mips64"`
	Endian      string `json:"endian" jsonschema:"title=Byte Order,description=Instruction byte order; auto follows the ELF header,enum=auto,enum=big,enum=little"`
	Features    string `json:"features" jsonschema:"title=Features,description=Extra ISA features (dsp msa fp64 n64 micromips) as a comma separated list"`
	MicroMips   bool   `json:"microMips" jsonschema:"title=microMIPS,description=Decode as microMIPS regardless of the ELF header"`
	MaxInsns    int    `json:"maxInsns" jsonschema:"title=Instruction Limit,description=Maximum instructions decoded per function,minimum=1"`
	ProfilePath string `json:"profilePath" jsonschema:"title=Profile Path,description=Path for CPU profile output"`
}

// Default values
const (
	DefaultMaxInsns = 1000
	DefaultTheme    = "vscode"
)

// FromEnv loads the configuration from the environment.
func FromEnv() *Config {
	return &Config{
		Debug:       env.Bool("MIPSDIS_DEBUG") || env.Str("MIPSDIS_LOG_LEVEL") == "debug",
		NoColor:     env.Has("MIPSDIS_NO_COLOR"),
		Theme:       env.Str("MIPSDIS_THEME", DefaultTheme),
		Arch:        env.Str("MIPSDIS_ARCH", "auto"),
		Endian:      env.Str("MIPSDIS_ENDIAN", "auto"),
		Features:    env.Str("MIPSDIS_FEATURES"),
		MicroMips:   env.Bool("MIPSDIS_MICROMIPS"),
		MaxInsns:    env.Int("MIPSDIS_MAX_INSNS", DefaultMaxInsns),
		ProfilePath: env.Str("MIPSDIS_CPUPROFILE"),
	}
}

// BindDecoderFlags registers the decoder selection flags with the current
// values as defaults, so flags override the environment.
func (c *Config) BindDecoderFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Arch, "arch", c.Arch, "Decoder variant: auto, mips32 or mips64")
	fs.StringVar(&c.Endian, "endian", c.Endian, "Byte order: auto, big or little")
	fs.StringVar(&c.Features, "features", c.Features, "Extra ISA features, e.g. dsp,msa,fp64")
	fs.BoolVar(&c.MicroMips, "micromips", c.MicroMips, "Decode microMIPS")
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if _, _, err := c.ArchOverride(); err != nil {
		return err
	}
	if _, _, err := c.EndianOverride(); err != nil {
		return err
	}
	if _, err := mips.ParseFeatures(c.Features); err != nil {
		return fmt.Errorf("invalid features: %w", err)
	}
	if c.MaxInsns <= 0 {
		return fmt.Errorf("invalid instruction limit %d", c.MaxInsns)
	}
	switch c.Theme {
	case "vscode", "charm":
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	return nil
}

// ArchOverride returns the requested decoder variant. set is false for auto.
func (c *Config) ArchOverride() (arch mips.Arch, set bool, err error) {
	switch strings.ToLower(c.Arch) {
	case "", "auto":
		return mips.ArchMips32, false, nil
	case "mips32", "mips", "32":
		return mips.ArchMips32, true, nil
	case "mips64", "64":
		return mips.ArchMips64, true, nil
	}
	return 0, false, fmt.Errorf("unknown architecture %q", c.Arch)
}

// EndianOverride returns the requested byte order. set is false for auto.
func (c *Config) EndianOverride() (bigEndian bool, set bool, err error) {
	switch strings.ToLower(c.Endian) {
	case "", "auto":
		return false, false, nil
	case "big", "be", "eb":
		return true, true, nil
	case "little", "le", "el":
		return false, true, nil
	}
	return false, false, fmt.Errorf("unknown byte order %q", c.Endian)
}

// DecoderFeatures returns the parsed feature list with the microMIPS switch
// folded in.
func (c *Config) DecoderFeatures() (mips.Features, error) {
	f, err := mips.ParseFeatures(c.Features)
	if err != nil {
		return 0, err
	}
	if c.MicroMips {
		f |= mips.FeatureMicroMips
	}
	return f, nil
}

// DecoderConfig resolves a full decoder configuration for raw input, where
// there is no ELF header to fall back on: auto means big-endian mips32.
func (c *Config) DecoderConfig() (mips.Config, error) {
	arch, _, err := c.ArchOverride()
	if err != nil {
		return mips.Config{}, err
	}
	big, set, err := c.EndianOverride()
	if err != nil {
		return mips.Config{}, err
	}
	if !set {
		big = true
	}
	f, err := c.DecoderFeatures()
	if err != nil {
		return mips.Config{}, err
	}
	return mips.Config{Arch: arch, BigEndian: big, Features: f}, nil
}

// Override applies the explicit settings on top of a configuration derived
// from an ELF header.
func (c *Config) Override(cfg mips.Config) (mips.Config, error) {
	if arch, set, err := c.ArchOverride(); err != nil {
		return cfg, err
	} else if set {
		cfg.Arch = arch
	}
	if big, set, err := c.EndianOverride(); err != nil {
		return cfg, err
	} else if set {
		cfg.BigEndian = big
	}
	f, err := c.DecoderFeatures()
	if err != nil {
		return cfg, err
	}
	cfg.Features |= f
	return cfg, nil
}
