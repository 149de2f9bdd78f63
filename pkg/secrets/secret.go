package secrets

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a secret path does not exist in a store.
	ErrNotFound = errors.New("secrets: secret not found")

	// ErrNotVersioned is returned when the secret at a path is not a versioned secret.
	ErrNotVersioned = errors.New("secrets: secret is not versioned")
)

// Slot names one version of a versioned secret.
type Slot string

const (
	SlotCurrent  Slot = "current"
	SlotPrevious Slot = "previous"
	SlotNext     Slot = "next"
)

// ParseSlot returns the Slot named by s.
func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotCurrent, SlotPrevious, SlotNext:
		return Slot(s), nil
	}
	return "", errors.New("secrets: unknown slot " + s)
}

// VersionedSecret holds the versions of a rotating secret. Empty strings mean
// the version is absent.
type VersionedSecret struct {
	Current  string
	Previous string
	Next     string
}

// AllVersions returns the non-empty versions, current first, then previous,
// then next.
func (v VersionedSecret) AllVersions() []string {
	versions := make([]string, 0, 3)
	for _, s := range []string{v.Current, v.Previous, v.Next} {
		if s != "" {
			versions = append(versions, s)
		}
	}
	return versions
}

// With returns a copy of v with slot set to value.
func (v VersionedSecret) With(slot Slot, value string) VersionedSecret {
	switch slot {
	case SlotCurrent:
		v.Current = value
	case SlotPrevious:
		v.Previous = value
	case SlotNext:
		v.Next = value
	}
	return v
}

// Store is implemented by every backend in this package.
type Store interface {
	GetVersionedAndMtime(path string) (VersionedSecret, time.Time, error)
}
