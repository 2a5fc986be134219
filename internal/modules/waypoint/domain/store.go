package domain

// Snapshot is an immutable copy of the store's ordered slots.
type Snapshot []Waypoint

// Usable returns the positions of non-pending waypoints in route order.
func (s Snapshot) Usable() []LatLng {
	out := make([]LatLng, 0, len(s))
	for _, wp := range s {
		if !wp.Pending {
			out = append(out, wp.Position)
		}
	}
	return out
}

// Routable reports whether both endpoints are set. A lone endpoint never
// triggers routing, even with vias present.
func (s Snapshot) Routable() bool {
	if len(s) < 2 {
		return false
	}
	return !s[0].Pending && !s[len(s)-1].Pending
}

type slot struct {
	pos LatLng
	set bool
}

// Store holds the ordered route points. Slot 0 is always the start and the
// last slot the end; anything between is a via. It does not validate
// coordinates.
type Store struct {
	slots     []slot
	listeners map[int]func(Snapshot)
	nextSub   int
}

func NewStore() *Store {
	return &Store{
		slots:     make([]slot, 2),
		listeners: map[int]func(Snapshot){},
	}
}

// Subscribe registers fn for change notifications and returns its
// unsubscribe function.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *Store) SetWaypoint(role Role, p LatLng) {
	idx, ok := s.endpointIndex(role)
	if !ok {
		return
	}
	s.put(idx, p)
}

func (s *Store) ClearWaypoint(role Role) {
	idx, ok := s.endpointIndex(role)
	if !ok || !s.slots[idx].set {
		return
	}
	s.slots[idx] = slot{}
	s.notify()
}

// MoveWaypoint updates the position at index in place; role and order are kept.
func (s *Store) MoveWaypoint(index int, p LatLng) {
	if index < 0 || index >= len(s.slots) {
		return
	}
	s.put(index, p)
}

// Reorder rearranges slots so that new position i holds old slot order[i].
// Anything that is not a permutation of the current indices is ignored.
func (s *Store) Reorder(order []int) {
	if len(order) != len(s.slots) {
		return
	}
	seen := make([]bool, len(s.slots))
	for _, idx := range order {
		if idx < 0 || idx >= len(s.slots) || seen[idx] {
			return
		}
		seen[idx] = true
	}
	next := make([]slot, len(s.slots))
	changed := false
	for i, idx := range order {
		next[i] = s.slots[idx]
		if idx != i {
			changed = true
		}
	}
	if !changed {
		return
	}
	s.slots = next
	s.notify()
}

// Reverse swaps the route direction.
func (s *Store) Reverse() {
	order := make([]int, len(s.slots))
	for i := range order {
		order[i] = len(s.slots) - 1 - i
	}
	s.Reorder(order)
}

// InsertVia adds a via point just before the end.
func (s *Store) InsertVia(p LatLng) {
	last := len(s.slots) - 1
	s.slots = append(s.slots[:last], slot{pos: p, set: true}, s.slots[last])
	s.notify()
}

// RemoveVia drops the via at index. Endpoints cannot be removed this way.
func (s *Store) RemoveVia(index int) {
	if index <= 0 || index >= len(s.slots)-1 {
		return
	}
	s.slots = append(s.slots[:index], s.slots[index+1:]...)
	s.notify()
}

func (s *Store) Len() int { return len(s.slots) }

func (s *Store) Snapshot() Snapshot {
	out := make(Snapshot, len(s.slots))
	for i, sl := range s.slots {
		out[i] = Waypoint{Position: sl.pos, Role: roleAt(i, len(s.slots)), Pending: !sl.set}
	}
	return out
}

func (s *Store) endpointIndex(role Role) (int, bool) {
	switch role {
	case RoleStart:
		return 0, true
	case RoleEnd:
		return len(s.slots) - 1, true
	default:
		return 0, false
	}
}

func (s *Store) put(idx int, p LatLng) {
	if s.slots[idx].set && s.slots[idx].pos == p {
		return
	}
	s.slots[idx] = slot{pos: p, set: true}
	s.notify()
}

func (s *Store) notify() {
	snap := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

func roleAt(i, n int) Role {
	switch {
	case i == 0:
		return RoleStart
	case i == n-1:
		return RoleEnd
	default:
		return RoleVia
	}
}
