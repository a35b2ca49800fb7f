package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default session coordinates used when a scenario names none.
const (
	DefaultAppID     = "app"
	DefaultRuntimeID = "runtime"
)

// Scenario is a scripted editing session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	AppID     string `yaml:"app_id,omitempty"`
	RuntimeID string `yaml:"runtime_id,omitempty"`
	ClassName string `yaml:"class_name,omitempty"`

	// Initial is an optional path to a JSON document to start from,
	// relative to the scenario file. Without it the session starts on the
	// default document.
	Initial string `yaml:"initial,omitempty"`

	// MaxVersions bounds the undo history. Zero keeps the default.
	MaxVersions int `yaml:"max_versions,omitempty"`

	Steps []Step `yaml:"steps"`

	// Expect is checked once after the last step.
	Expect *Expectation `yaml:"expect,omitempty"`

	// dir is the directory the scenario was loaded from.
	dir string
}

// Step is one operation in a scenario.
type Step struct {
	Action map[string]any `yaml:"action,omitempty"`
	Undo   bool           `yaml:"undo,omitempty"`
	Redo   bool           `yaml:"redo,omitempty"`
	Drag   *DragStep      `yaml:"drag,omitempty"`
	Save   bool           `yaml:"save,omitempty"`
	Reload bool           `yaml:"reload,omitempty"`

	Expect *Expectation `yaml:"expect,omitempty"`
}

// DragStep is a pointer gesture on a package row. Coordinates are pixel
// positions of the pointer; the gesture starts at the center of the row.
type DragStep struct {
	Package string    `yaml:"package"`
	Via     []float64 `yaml:"via,omitempty"`
	To      float64   `yaml:"to"`

	// Result optionally names the expected drop kind: reorder, click or none.
	Result string `yaml:"result,omitempty"`
}

// Expectation describes the observable session state. Unset fields are
// not checked.
type Expectation struct {
	Packages  []string            `yaml:"packages,omitempty"`
	Rules     map[string][]string `yaml:"rules,omitempty"`
	Changed   *bool               `yaml:"changed,omitempty"`
	Modified  *bool               `yaml:"modified,omitempty"`
	CanUndo   *bool               `yaml:"can_undo,omitempty"`
	CanRedo   *bool               `yaml:"can_redo,omitempty"`
	Versions  *int                `yaml:"versions,omitempty"`
	Code      map[string]string   `yaml:"code,omitempty"` // "pkg/rule" -> code
	Generated []string            `yaml:"generated,omitempty"`
}

// Step kinds, as reported in results.
const (
	StepAction = "action"
	StepUndo   = "undo"
	StepRedo   = "redo"
	StepDrag   = "drag"
	StepSave   = "save"
	StepReload = "reload"
	StepExpect = "expect"
)

// Kind returns which operation the step performs.
func (s Step) Kind() string {
	switch {
	case s.Action != nil:
		return StepAction
	case s.Undo:
		return StepUndo
	case s.Redo:
		return StepRedo
	case s.Drag != nil:
		return StepDrag
	case s.Save:
		return StepSave
	case s.Reload:
		return StepReload
	}
	return StepExpect
}

func (s Step) operations() int {
	n := 0
	for _, set := range []bool{s.Action != nil, s.Undo, s.Redo, s.Drag != nil, s.Save, s.Reload} {
		if set {
			n++
		}
	}
	return n
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// ParseScenario parses scenario YAML. Relative paths in the result resolve
// against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if sc.AppID == "" {
		sc.AppID = DefaultAppID
	}
	if sc.RuntimeID == "" {
		sc.RuntimeID = DefaultRuntimeID
	}
	return &sc, nil
}

func validateScenario(sc *Scenario) error {
	var errs []error
	if sc.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(sc.Steps) == 0 && sc.Expect == nil {
		errs = append(errs, errors.New("at least one step or a final expect is required"))
	}
	if sc.MaxVersions < 0 {
		errs = append(errs, fmt.Errorf("max_versions must not be negative, got %d", sc.MaxVersions))
	}
	for i, st := range sc.Steps {
		switch n := st.operations(); {
		case n > 1:
			errs = append(errs, fmt.Errorf("steps[%d]: a step performs one operation, got %d", i, n))
		case n == 0 && st.Expect == nil:
			errs = append(errs, fmt.Errorf("steps[%d]: empty step", i))
		}
		if st.Action != nil {
			if _, ok := st.Action["type"].(string); !ok {
				errs = append(errs, fmt.Errorf("steps[%d]: action needs a string type", i))
			}
		}
		if d := st.Drag; d != nil {
			if d.Package == "" {
				errs = append(errs, fmt.Errorf("steps[%d]: drag needs a package", i))
			}
			switch d.Result {
			case "", "reorder", "click", "none":
			default:
				errs = append(errs, fmt.Errorf("steps[%d]: unknown drag result %q", i, d.Result))
			}
		}
		if st.Expect != nil && st.Expect.Changed != nil && st.Kind() == StepExpect {
			errs = append(errs, fmt.Errorf("steps[%d]: changed needs an operation to observe", i))
		}
	}
	return errors.Join(errs...)
}

// initialPath resolves Initial against the scenario's directory.
func (sc *Scenario) initialPath() string {
	if sc.Initial == "" || filepath.IsAbs(sc.Initial) || sc.dir == "" {
		return sc.Initial
	}
	return filepath.Join(sc.dir, sc.Initial)
}
