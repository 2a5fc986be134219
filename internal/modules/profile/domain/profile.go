package domain

import (
	"fmt"
	"strings"

	apperrors "mapdirect/internal/platform/errors"
)

type Profile string

const (
	ProfileCar  Profile = "car"
	ProfileBike Profile = "bike"
	ProfileFoot Profile = "foot"

	DefaultProfile = ProfileCar
)

var servicePaths = map[Profile]string{
	ProfileFoot: "routed-foot",
	ProfileBike: "routed-bike",
	ProfileCar:  "routed-car",
}

// All returns the selectable profiles in selector order.
func All() []Profile {
	return []Profile{ProfileCar, ProfileBike, ProfileFoot}
}

func ParseProfile(raw string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(raw)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

func (p Profile) Validate() error {
	if _, ok := servicePaths[p]; !ok {
		return fmt.Errorf("%w: unsupported profile %q", apperrors.ErrInvalidInput, string(p))
	}
	return nil
}

// ServicePath is the backend path segment serving this profile.
func (p Profile) ServicePath() string {
	return servicePaths[p]
}

func (p Profile) Label() string {
	switch p {
	case ProfileCar:
		return "Car"
	case ProfileBike:
		return "Bike"
	case ProfileFoot:
		return "Foot"
	}
	return string(p)
}

// Next cycles through All in order.
func (p Profile) Next() Profile {
	all := All()
	for i, candidate := range all {
		if candidate == p {
			return all[(i+1)%len(all)]
		}
	}
	return DefaultProfile
}

// Selector holds the current travel profile.
type Selector struct {
	current   Profile
	listeners map[int]func(Profile)
	nextSub   int
}

func NewSelector() *Selector {
	return &Selector{current: DefaultProfile, listeners: map[int]func(Profile){}}
}

func (s *Selector) Profile() Profile { return s.current }

// SetProfile replaces the current profile. Unknown profiles are ignored and
// setting the current value again does not notify.
func (s *Selector) SetProfile(p Profile) {
	if p.Validate() != nil || p == s.current {
		return
	}
	s.current = p
	for _, fn := range s.listeners {
		fn(p)
	}
}

func (s *Selector) Subscribe(fn func(Profile)) func() {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}
