package ecomp

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mewkiz/pkg/errutil"
	"gopkg.in/yaml.v3"
)

// Config collects the tunable knobs Encode and Decode accept, the same
// shape mewkiz/flac's Encoder options take: a handful of named fields with
// a DefaultConfig constructor rather than functional options, since none of
// these need to compose with a builder chain.
type Config struct {
	// DictionaryCap bounds the number of dictionary entries Build may
	// select, clamped to block.MaxDictionarySize regardless of this value.
	DictionaryCap int `yaml:"dictionary_cap"`

	// HuffmanMaxCodeLength overrides model.MaxCodeLength for the encoder's
	// Huffman-vs-fixed-width comparison. It can only lower the decoder's
	// absolute ceiling, never raise it; values <= 0 or > model.MaxCodeLength
	// are ignored.
	HuffmanMaxCodeLength int `yaml:"huffman_max_code_length"`

	// Logger receives stage-level diagnostics during Encode/Decode. A nil
	// Logger is replaced with one writing to io.Discard.
	Logger *log.Logger `yaml:"-"`
}

// DefaultConfig returns the configuration Encode and Decode use when none
// is supplied.
func DefaultConfig() Config {
	return Config{
		DictionaryCap:        255,
		HuffmanMaxCodeLength: 15,
		Logger:               log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// LoadConfig reads a YAML configuration document, layering it over
// DefaultConfig so an omitted field keeps its default.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, newErr(MalformedInput, "config", errutil.Err(err))
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return cfg, nil
}

// LoadConfigFile is a convenience wrapper around LoadConfig for a path on
// disk.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, newErr(MalformedInput, "config", errutil.Err(err))
	}
	defer f.Close()
	return LoadConfig(f)
}

// withDefaults fills zero-valued fields from DefaultConfig individually, so
// a caller overriding one knob doesn't lose the others.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DictionaryCap <= 0 {
		c.DictionaryCap = d.DictionaryCap
	}
	if c.HuffmanMaxCodeLength <= 0 || c.HuffmanMaxCodeLength > d.HuffmanMaxCodeLength {
		c.HuffmanMaxCodeLength = d.HuffmanMaxCodeLength
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return c.Logger
}
