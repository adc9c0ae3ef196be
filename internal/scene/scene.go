package scene

// Scene is the container handed to display backends each frame.
type Scene struct {
	children []*Object
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add attaches obj to the scene.
func (s *Scene) Add(obj *Object) {
	if obj == nil {
		return
	}
	s.children = append(s.children, obj)
}

// Remove detaches obj. It reports whether obj was attached.
func (s *Scene) Remove(obj *Object) bool {
	for i, c := range s.children {
		if c == obj {
			copy(s.children[i:], s.children[i+1:])
			s.children[len(s.children)-1] = nil
			s.children = s.children[:len(s.children)-1]
			return true
		}
	}
	return false
}

// Children returns the attached objects in insertion order.
func (s *Scene) Children() []*Object {
	return s.children
}

// Len returns the number of attached objects.
func (s *Scene) Len() int { return len(s.children) }

// Dispose detaches and disposes every object.
func (s *Scene) Dispose() {
	for _, c := range s.children {
		c.Dispose()
	}
	s.children = nil
}
