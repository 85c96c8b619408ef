package di

import "fmt"

// Lifetime controls how long a constructed service lives.
type Lifetime int

const (
	// Singleton services are constructed once per provider.
	Singleton Lifetime = iota
	// Scoped services are constructed once per scope.
	Scoped
	// Transient services are constructed on every resolution.
	Transient
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Scoped:
		return "Scoped"
	case Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Lifetime(%d)", int(l))
	}
}
