package sim

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Component is an element that is being simulated. It handles the events
// that are scheduled for it.
type Component interface {
	Named
	Handler
}

// ComponentBase provides some functions that other components can use.
type ComponentBase struct {
	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	c := new(ComponentBase)
	c.name = name
	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}
