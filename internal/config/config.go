// Package config loads the runtime configuration of the multifx tools from
// YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cwbudde/algo-multifx/dsp/core"
	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/params"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Environment overrides.
const (
	EnvSampleRate = "MULTIFX_SAMPLE_RATE"
	EnvBlockSize  = "MULTIFX_BLOCK_SIZE"
	EnvOrder      = "MULTIFX_ORDER"
	EnvLogLevel   = "MULTIFX_LOG_LEVEL"
	EnvHTTPAddr   = "MULTIFX_HTTP_ADDR"
	EnvMIDIPort   = "MULTIFX_MIDI_PORT"
)

// MIDI configures the MIDI control surface.
type MIDI struct {
	Port    string `yaml:"port"`
	Channel int    `yaml:"channel"`
	CCBase  int    `yaml:"ccBase"`
}

// HTTP configures the REST control surface. An empty Addr disables it.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
}

// Meter configures the spectrum analyzer.
type Meter struct {
	FFTSize int    `yaml:"fftSize"`
	Window  string `yaml:"window"`
}

// Config is the complete runtime configuration.
type Config struct {
	SampleRate     float64            `yaml:"sampleRate"`
	BlockSize      int                `yaml:"blockSize"`
	InputChannels  int                `yaml:"inputChannels"`
	OutputChannels int                `yaml:"outputChannels"`
	QueueCapacity  int                `yaml:"queueCapacity"`
	Order          effectchain.Order  `yaml:"order"`
	Params         map[string]float64 `yaml:"params"`
	OrderPresets   map[int]string     `yaml:"orderPresets"`
	MIDI           MIDI               `yaml:"midi"`
	HTTP           HTTP               `yaml:"http"`
	Log            Log                `yaml:"log"`
	Meter          Meter              `yaml:"meter"`
}

// Default returns the built-in configuration.
func Default() Config {
	spec := core.DefaultProcessSpec()

	return Config{
		SampleRate:     spec.SampleRate,
		BlockSize:      spec.MaxBlockSize,
		InputChannels:  spec.NumChannels,
		OutputChannels: spec.NumChannels,
		QueueCapacity:  effectchain.DefaultQueueCapacity,
		Order:          effectchain.DefaultOrder(),
		Params:         map[string]float64{},
		OrderPresets: map[int]string{
			0: effectchain.DefaultOrder().String(),
			1: effectchain.BypassOrder().String(),
		},
		MIDI:  MIDI{CCBase: 20},
		Log:   Log{Level: "info"},
		Meter: Meter{FFTSize: 2048, Window: "blackmanharris"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Spec returns the process spec for the output layout.
func (c Config) Spec() core.ProcessSpec {
	return core.ProcessSpec{
		SampleRate:   c.SampleRate,
		MaxBlockSize: c.BlockSize,
		NumChannels:  c.OutputChannels,
	}
}

// Presets parses the order presets.
func (c Config) Presets() (map[int]effectchain.Order, error) {
	out := make(map[int]effectchain.Order, len(c.OrderPresets))

	for n, text := range c.OrderPresets {
		o, err := effectchain.ParseOrder(text)
		if err != nil {
			return nil, fmt.Errorf("config: %w: preset %d: %w", ErrInvalidConfig, n, err)
		}

		out[n] = o
	}

	return out, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := c.Spec().Validate(); err != nil {
		return fmt.Errorf("config: %w: %w", ErrInvalidConfig, err)
	}

	if c.InputChannels < 1 || c.InputChannels > c.OutputChannels {
		return fmt.Errorf("config: %w: inputChannels must be in [1, %d]: %d",
			ErrInvalidConfig, c.OutputChannels, c.InputChannels)
	}

	if c.QueueCapacity < 1 || c.QueueCapacity > effectchain.MaxQueueCapacity {
		return fmt.Errorf("config: %w: queueCapacity must be in [1, %d]: %d",
			ErrInvalidConfig, effectchain.MaxQueueCapacity, c.QueueCapacity)
	}

	if c.Order.IsEmpty() {
		return fmt.Errorf("config: %w: order is empty", ErrInvalidConfig)
	}

	if err := c.Order.Validate(); err != nil {
		return fmt.Errorf("config: %w: %w", ErrInvalidConfig, err)
	}

	for id := range c.Params {
		if _, ok := params.Lookup(id); !ok {
			return fmt.Errorf("config: %w: %w: %q", ErrInvalidConfig, params.ErrUnknownParam, id)
		}
	}

	if _, err := c.Presets(); err != nil {
		return err
	}

	if c.MIDI.Channel < 0 || c.MIDI.Channel > 15 {
		return fmt.Errorf("config: %w: midi.channel must be in [0, 15]: %d", ErrInvalidConfig, c.MIDI.Channel)
	}

	if c.MIDI.CCBase < 0 || c.MIDI.CCBase+params.Count() > 128 {
		return fmt.Errorf("config: %w: midi.ccBase leaves no room for %d controllers: %d",
			ErrInvalidConfig, params.Count(), c.MIDI.CCBase)
	}

	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvSampleRate); ok {
		sr, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %w: %s: %w", ErrInvalidConfig, EnvSampleRate, err)
		}

		c.SampleRate = sr
	}

	if v, ok := lookup(EnvBlockSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %w: %s: %w", ErrInvalidConfig, EnvBlockSize, err)
		}

		c.BlockSize = n
	}

	if v, ok := lookup(EnvOrder); ok {
		o, err := effectchain.ParseOrder(v)
		if err != nil {
			return fmt.Errorf("config: %w: %s: %w", ErrInvalidConfig, EnvOrder, err)
		}

		c.Order = o
	}

	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}

	if v, ok := lookup(EnvHTTPAddr); ok {
		c.HTTP.Addr = v
	}

	if v, ok := lookup(EnvMIDIPort); ok {
		c.MIDI.Port = v
	}

	return nil
}
