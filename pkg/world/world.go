package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/jwebster45206/deadtown/pkg/inventory"
)

var (
	ErrNotFound       = errors.New("interactable not found")
	ErrDuplicateID    = errors.New("duplicate interactable id")
	ErrNotDestroyable = errors.New("interactable cannot be destroyed")
)

// Vec2 is a world-space position.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (v Vec2) Distance(o Vec2) float64 {
	return math.Hypot(o.X-v.X, o.Y-v.Y)
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Bounds is the rectangle the avatar is confined to.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamp keeps p inside [0,Width]x[0,Height]. A zero Bounds leaves p as is.
func (b Bounds) Clamp(p Vec2) Vec2 {
	if b.Width <= 0 || b.Height <= 0 {
		return p
	}
	p.X = math.Max(0, math.Min(b.Width, p.X))
	p.Y = math.Max(0, math.Min(b.Height, p.Y))
	return p
}

// Kind tells items apart from doorways.
type Kind string

const (
	KindItem    Kind = "item"
	KindDoorway Kind = "doorway"
)

// Object is an interactable thing placed in the world.
type Object struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Position    Vec2            `json:"position"`
	Radius      float64         `json:"radius,omitempty"` // doorway zone radius
	Item        *inventory.Item `json:"item,omitempty"`   // pickup payload, items only
}

// Registry holds every live interactable keyed by a stable ID. Components
// outside the registry refer to objects by ID only.
type Registry struct {
	objects map[string]*Object
	order   []string // registration order, for deterministic scans
}

func NewRegistry() *Registry {
	return &Registry{objects: make(map[string]*Object)}
}

// Add places obj in the world.
func (r *Registry) Add(obj Object) error {
	if obj.ID == "" {
		return fmt.Errorf("interactable %q has no id", obj.Name)
	}
	if _, exists := r.objects[obj.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, obj.ID)
	}
	if obj.Kind == KindItem && obj.Item == nil {
		obj.Item = &inventory.Item{Name: obj.Name, Description: obj.Description}
	}
	o := obj
	r.objects[obj.ID] = &o
	r.order = append(r.order, obj.ID)
	return nil
}

// Get returns a copy of the object with id.
func (r *Registry) Get(id string) (Object, bool) {
	obj, ok := r.objects[id]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// Alive reports whether id is still in the world.
func (r *Registry) Alive(id string) bool {
	_, ok := r.objects[id]
	return ok
}

// Destroy removes an item from the world. Each item can be destroyed once;
// doorways are never destroyed.
func (r *Registry) Destroy(id string) error {
	obj, ok := r.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if obj.Kind == KindDoorway {
		return fmt.Errorf("%w: %s is a doorway", ErrNotDestroyable, id)
	}
	delete(r.objects, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Items returns the live items in registration order.
func (r *Registry) Items() []Object {
	return r.ofKind(KindItem)
}

// Doorways returns the doorway zones in registration order.
func (r *Registry) Doorways() []Object {
	return r.ofKind(KindDoorway)
}

// All returns every live object in registration order.
func (r *Registry) All() []Object {
	out := make([]Object, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.objects[id])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) ofKind(k Kind) []Object {
	var out []Object
	for _, id := range r.order {
		if obj := r.objects[id]; obj.Kind == k {
			out = append(out, *obj)
		}
	}
	return out
}
