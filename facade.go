package statez

// Facade is a name-keyed adapter over a Manager: Get reads a cell by name and
// Set creates the State on first use and writes it afterwards.
type Facade struct {
	m *Manager
}

// Get returns the committed value of name, or nil when no cell has that name.
func (f *Facade) Get(name string) any {
	v, err := f.m.Get(name)
	if err != nil {
		return nil
	}
	return v
}

// Set writes v to name. A missing name is created holding v; otherwise the
// write is queued like Manager.Set. It returns false for Computed cells.
func (f *Facade) Set(name string, v any) bool {
	if !f.m.Exists(name) {
		if _, err := f.m.CreateState(name, v); err == nil {
			return true
		}
	}
	return f.m.Set(name, v)
}
