package config

import (
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Store names accepted in a task's store field.
const (
	StoreFS  = "fs"
	StoreCAS = "cas"
)

// Taskfile represents the structure of the kiln.yaml configuration file.
type Taskfile struct {
	Version string             `yaml:"version" validate:"required,eq=1"`
	Default string             `yaml:"default"`
	Tasks   map[string]TaskDTO `yaml:"tasks" validate:"required,min=1,dive"`
}

// TaskDTO represents a task definition in the configuration.
type TaskDTO struct {
	Output       string            `yaml:"output" validate:"required"`
	Store        string            `yaml:"store" validate:"omitempty,oneof=fs cas"`
	Prerequisite bool              `yaml:"prerequisite"`
	Requires     StringList        `yaml:"requires"`
	Cmd          []string          `yaml:"cmd" validate:"required_unless=Prerequisite true"`
	Env          map[string]string `yaml:"env"`
}

// StringList accepts either a single scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return zerr.With(zerr.New("expected a task name or a list of task names"), "line", value.Line)
	}
}
