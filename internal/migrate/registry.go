package migrate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
)

// ErrDuplicateID is returned when registering the same migration twice.
var ErrDuplicateID = errors.New("migrate: duplicate migration id")

// Registry keeps migrations sorted by id, which is also their apply order.
type Registry struct {
	mu    sync.RWMutex
	items []Migration
}

func (r *Registry) Add(m Migration) error {
	if err := validateMigration(m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i, found := slices.BinarySearchFunc(r.items, m.ID, func(have Migration, id string) int {
		return strings.Compare(have.ID, id)
	})
	if found {
		return fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
	}
	r.items = slices.Insert(r.items, i, m)
	return nil
}

// All returns a copy in apply order.
func (r *Registry) All() []Migration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items)
}

var defaultRegistry Registry

// Register adds m to the process-wide registry. Migration packages call it
// from init.
func Register(m Migration) error {
	return defaultRegistry.Add(m)
}

func List() []Migration {
	return defaultRegistry.All()
}

// ResetForTesting clears the process-wide registry.
func ResetForTesting() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.items = nil
}

func validateMigration(m Migration) error {
	switch {
	case m.ID == "":
		return errors.New("migrate: migration id must not be empty")
	case m.Checksum == "":
		return fmt.Errorf("migrate: %s: checksum must not be empty", m.ID)
	case m.Apply == nil:
		return fmt.Errorf("migrate: %s: apply func is required", m.ID)
	}
	if _, err := idwrap.NewText(m.ID); err != nil {
		return fmt.Errorf("migrate: migration id must be a ULID: %w", err)
	}
	return nil
}
