package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

const (
	DefaultMaxConcurrency = 5
)

// Config : configuration for the job
type Config[S any, T any] struct {
	MaxConcurrency int      `json:"max_concurrency"`
	Include        []string `json:"include"`
	Exclude        []string `json:"exclude"`
	StateDB        string   `json:"state_db"`
	SourceConfig   S        `json:"source"`
	Target         T        `json:"target"`
	Importer       Importer `json:"importer"`
	Pipeline       []Stage  `json:"pipeline"`
}

// Defaults : fills every unset field with its documented default
func (c *Config[S, T]) Defaults() {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	c.Importer.Defaults()
	if d, ok := any(&c.SourceConfig).(interface{ Defaults() }); ok {
		d.Defaults()
	}
	if d, ok := any(&c.Target).(interface{ Defaults() }); ok {
		d.Defaults()
	}
}

// Validate : reports every problem found at once
func (c *Config[S, T]) Validate() error {
	var result error
	if c.MaxConcurrency <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency))
	}
	if err := c.Importer.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	for i, st := range c.Pipeline {
		if st.Kind == "" {
			result = multierror.Append(result, fmt.Errorf("pipeline[%d] : missing kind", i))
		}
	}
	for _, v := range []any{&c.SourceConfig, &c.Target} {
		if val, ok := v.(interface{ Validate() error }); ok {
			if err := val.Validate(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result
}

// Duration : time.Duration that reads "30s" style strings or plain nanoseconds from json
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(time.Duration(val))
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q : %w", val, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}
