package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
)

const maxPlatesPerInventory = 10

var (
	// ErrInvalidInventories indicates the provided inventories violate validation rules.
	ErrInvalidInventories = errors.New("inventories must contain between 1 and 10 positive plates each, in different units")
)

// Storage provides access to the plate inventories used by the calculator.
type Storage interface {
	GetInventories() (calculator.Inventories, error)
	SetInventories(inv calculator.Inventories) error
}

// MemoryStorage keeps inventories in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu          sync.RWMutex
	inventories calculator.Inventories
}

// NewMemoryStorage initialises storage with the default inventories.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		inventories: calculator.DefaultInventories(),
	}
}

// GetInventories returns a defensive copy of the currently configured inventories.
func (s *MemoryStorage) GetInventories() (calculator.Inventories, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inventories.Clone(), nil
}

// SetInventories validates, normalises, and stores the provided inventories.
func (s *MemoryStorage) SetInventories(inv calculator.Inventories) error {
	normalized, err := normalizeInventories(inv)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.inventories = normalized
	s.mu.Unlock()

	return nil
}

// normalizeInventories de-duplicates and sorts plates heaviest first, then enforces
// the calculator invariants and the per-inventory size limit.
func normalizeInventories(inv calculator.Inventories) (calculator.Inventories, error) {
	out := calculator.Inventories{
		Coarse: calculator.Inventory{Unit: inv.Coarse.Unit, Plates: calculator.NormalizePlates(inv.Coarse.Plates)},
		Fine:   calculator.Inventory{Unit: inv.Fine.Unit, Plates: calculator.NormalizePlates(inv.Fine.Plates)},
	}

	if len(out.Coarse.Plates) > maxPlatesPerInventory || len(out.Fine.Plates) > maxPlatesPerInventory {
		return calculator.Inventories{}, ErrInvalidInventories
	}
	if err := out.Validate(); err != nil {
		return calculator.Inventories{}, fmt.Errorf("%w: %w", ErrInvalidInventories, err)
	}
	return out, nil
}
