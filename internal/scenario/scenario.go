package scenario

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/errors"
)

// Operations a step can perform.
const (
	OpSet    = "set"
	OpDelete = "delete"
	OpGet    = "get"
	OpHas    = "has"
	OpKeys   = "keys"
	OpTx     = "tx"
)

// Scenario is a scripted session against one dynamic observable object:
// initial properties, derived properties, watchers, interceptors and a list
// of steps.
type Scenario struct {
	// Name identifies the scenario and names the object.
	Name string `yaml:"name" validate:"required"`

	// Description is free text shown by 'reactor check'.
	Description string `yaml:"description,omitempty"`

	// Enhancer overrides the configured default enhancer.
	Enhancer string `yaml:"enhancer,omitempty" validate:"omitempty,oneof=deep shallow ref struct" jsonschema:"enum=deep,enum=shallow,enum=ref,enum=struct"`

	// Props are the initial stored properties, in declaration order.
	Props []Prop `yaml:"props,omitempty" validate:"dive"`

	// Computed are derived properties over other keys.
	Computed []Derived `yaml:"computed,omitempty" validate:"dive"`

	// Watch are autoruns that print what they read.
	Watch []Watch `yaml:"watch,omitempty" validate:"dive"`

	// Intercept are rules applied to pending changes.
	Intercept []Rule `yaml:"intercept,omitempty" validate:"dive"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// Prop is an initial property.
type Prop struct {
	Key   string `yaml:"key" validate:"required"`
	Value any    `yaml:"value"`
}

// Derived declares a computed property: the sum of numeric keys, or the
// space-joined values of any keys.
type Derived struct {
	Key string   `yaml:"key" validate:"required"`
	Op  string   `yaml:"op" validate:"oneof=sum concat" jsonschema:"enum=sum,enum=concat"`
	Of  []string `yaml:"of" validate:"required,min=1,dive,required"`
}

// Watch is an autorun reading one aspect of the object.
type Watch struct {
	Kind string `yaml:"kind" validate:"oneof=get has keys" jsonschema:"enum=get,enum=has,enum=keys"`
	Key  string `yaml:"key,omitempty"`
}

// Rule intercepts pending changes to Key. "veto" cancels them; "replace"
// substitutes Value for the incoming value of adds and updates.
type Rule struct {
	Key    string `yaml:"key" validate:"required"`
	Action string `yaml:"action" validate:"oneof=veto replace" jsonschema:"enum=veto,enum=replace"`
	Value  any    `yaml:"value,omitempty"`
}

// Step is one operation on the object. Tx groups nested steps into one
// transaction.
type Step struct {
	Op    string `yaml:"op" validate:"oneof=set delete get has keys tx" jsonschema:"enum=set,enum=delete,enum=get,enum=has,enum=keys,enum=tx"`
	Key   string `yaml:"key,omitempty"`
	Value any    `yaml:"value,omitempty"`
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps,omitempty" validate:"dive"`
}

// LoadFile reads and validates a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("S001").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}
	return Parse(data)
}

// Parse decodes and validates scenario YAML. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New("S001").WithDetail("The scenario file is empty.")
		}
		return nil, errors.New("S001").
			WithDetail("Failed to parse scenario: " + err.Error()).
			WithSuggestion("Run 'reactor schema scenario' to see the format")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field values and the rules that span fields: which ops
// need a key, that tx steps have nested steps, and that keys are declared at
// most once.
func (s *Scenario) Validate() error {
	var problems []string
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return errors.New("S002").Wrap(err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s: fails %s", strings.TrimPrefix(fe.Namespace(), "Scenario."), fe.Tag()))
		}
	}

	seen := make(map[string]bool)
	for i, p := range s.Props {
		if seen[p.Key] {
			problems = append(problems, fmt.Sprintf("props[%d]: key %q declared twice", i, p.Key))
		}
		seen[p.Key] = true
	}
	for i, d := range s.Computed {
		if seen[d.Key] {
			problems = append(problems, fmt.Sprintf("computed[%d]: key %q declared twice", i, d.Key))
		}
		seen[d.Key] = true
	}
	for i, w := range s.Watch {
		if w.Kind != OpKeys && w.Key == "" {
			problems = append(problems, fmt.Sprintf("watch[%d]: %s needs a key", i, w.Kind))
		}
	}
	problems = append(problems, checkSteps("steps", s.Steps)...)

	if len(problems) > 0 {
		return errors.New("S002").WithDetail(strings.Join(problems, "\n"))
	}
	return nil
}

func checkSteps(path string, steps []Step) []string {
	var problems []string
	for i, st := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch st.Op {
		case OpSet, OpDelete, OpGet, OpHas:
			if st.Key == "" {
				problems = append(problems, fmt.Sprintf("%s: %s needs a key", at, st.Op))
			}
		case OpTx:
			if len(st.Steps) == 0 {
				problems = append(problems, fmt.Sprintf("%s: tx needs nested steps", at))
			}
			problems = append(problems, checkSteps(at+".steps", st.Steps)...)
		}
		if st.Op != OpTx && len(st.Steps) > 0 {
			problems = append(problems, fmt.Sprintf("%s: only tx steps may nest steps", at))
		}
	}
	return problems
}

// Count returns the number of steps, including nested ones.
func (s *Scenario) Count() int {
	return countSteps(s.Steps)
}

func countSteps(steps []Step) int {
	n := 0
	for _, st := range steps {
		n++
		n += countSteps(st.Steps)
	}
	return n
}

// Schema returns the JSON schema of scenario files.
func Schema() ([]byte, error) {
	return config.GenerateSchema(&Scenario{})
}
