package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario drives a simulated host: how long each step takes and who is
// online, in ordered phases.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Phases      []Phase `yaml:"phases"`
}

// Phase lasts Ticks host steps. Join and Leave are applied once when the
// phase is entered. The last phase is held once reached.
type Phase struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Ticks       int      `yaml:"ticks"`
	LoadMs      float64  `yaml:"load_ms"`
	JitterMs    float64  `yaml:"jitter_ms,omitempty"`
	Join        []string `yaml:"join,omitempty"`
	Leave       []string `yaml:"leave,omitempty"`
}

var ErrNoPhases = errors.New("scenario has no phases")

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML scenario.
func Parse(b []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks phase durations and loads.
func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return ErrNoPhases
	}
	for i, p := range s.Phases {
		if p.Ticks < 0 {
			return fmt.Errorf("phase %d (%s): ticks must not be negative", i, p.Name)
		}
		if p.LoadMs < 0 || p.JitterMs < 0 {
			return fmt.Errorf("phase %d (%s): load_ms and jitter_ms must not be negative", i, p.Name)
		}
	}
	return nil
}

// Cursor walks a scenario one host step at a time.
type Cursor struct {
	sc        *Scenario
	idx       int
	remaining int
	started   bool
}

// NewCursor positions a cursor before the first phase.
func NewCursor(sc *Scenario) *Cursor {
	return &Cursor{sc: sc}
}

// Next advances one step and returns the phase that step belongs to.
// entered is true on the first step of a phase.
func (c *Cursor) Next() (p Phase, entered bool) {
	if !c.started {
		c.started = true
		c.remaining = c.sc.Phases[0].Ticks
		entered = true
	} else if c.remaining <= 0 && c.idx < len(c.sc.Phases)-1 {
		c.idx++
		c.remaining = c.sc.Phases[c.idx].Ticks
		entered = true
	}
	c.remaining--
	return c.sc.Phases[c.idx], entered
}

// Index returns the current phase index.
func (c *Cursor) Index() int {
	return c.idx
}
