package domain

import "go.trai.ch/zerr"

// Catalog holds the named tasks declared by a taskfile.
type Catalog struct {
	tasks       map[string]*Node
	names       []string
	defaultName string
}

// NewCatalog creates a new empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tasks: make(map[string]*Node),
	}
}

// Add registers n under name.
// It returns an error if a task with the same name already exists.
func (c *Catalog) Add(name string, n *Node) error {
	if _, exists := c.tasks[name]; exists {
		return zerr.With(zerr.Wrap(ErrTaskAlreadyExists, name), "task_name", name)
	}
	c.tasks[name] = n
	c.names = append(c.names, name)
	return nil
}

// Lookup returns the task registered under name.
func (c *Catalog) Lookup(name string) (*Node, error) {
	n, ok := c.tasks[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(ErrTaskNotFound, name), "task_name", name)
	}
	return n, nil
}

// Names returns the task names in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// SetDefault sets the task used when no target is given.
func (c *Catalog) SetDefault(name string) {
	c.defaultName = name
}

// Default returns the name of the default task, if any.
func (c *Catalog) Default() string {
	return c.defaultName
}

// Target resolves name to a task, falling back to the default task when name is empty.
func (c *Catalog) Target(name string) (*Node, error) {
	if name == "" {
		name = c.defaultName
	}
	if name == "" {
		return nil, ErrNoTarget
	}
	return c.Lookup(name)
}
