package memory

import (
	"context"
	"fmt"
	"sync"
)

// RolePlatform is an in-memory implementation of app.RolePlatform. The real
// platform adapter lives with the gateway; this one backs tests and the
// default wiring.
type RolePlatform struct {
	mu      sync.Mutex
	roles   map[string]int                 // label -> color
	members map[string]map[string]struct{} // userID -> labels
}

func NewRolePlatform() *RolePlatform {
	return &RolePlatform{
		roles:   make(map[string]int),
		members: make(map[string]map[string]struct{}),
	}
}

// EnsureRole creates the role if missing; an existing role keeps its color.
func (p *RolePlatform) EnsureRole(_ context.Context, label string, color int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.roles[label]; !ok {
		p.roles[label] = color
	}
	return nil
}

func (p *RolePlatform) AddRole(_ context.Context, userID, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.roles[label]; !ok {
		return fmt.Errorf("role %q does not exist", label)
	}
	if p.members[userID] == nil {
		p.members[userID] = make(map[string]struct{})
	}
	p.members[userID][label] = struct{}{}
	return nil
}

func (p *RolePlatform) RemoveRole(_ context.Context, userID, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if labels, ok := p.members[userID]; ok {
		delete(labels, label)
	}
	return nil
}

// HasRole reports membership, for tests.
func (p *RolePlatform) HasRole(userID, label string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.members[userID][label]
	return ok
}

// RoleColor returns the stored color and whether the role exists, for tests.
func (p *RolePlatform) RoleColor(label string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	color, ok := p.roles[label]
	return color, ok
}
