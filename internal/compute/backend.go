package compute

import (
	"fmt"
	"sort"
)

type Backend interface {
	Name() string
	Workers() int
	ParallelFor(n int, fn func(start, end int))
	Close()
}

var backends = map[string]func(workers int) Backend{
	"cpu":    func(workers int) Backend { return NewCPUBackend(workers) },
	"serial": func(int) Backend { return NewSerialBackend() },
}

// NewBackend returns the backend registered under name.
func NewBackend(name string, workers int) (Backend, error) {
	fn, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s (available: %v)", name, Names())
	}
	return fn(workers), nil
}

func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SerialBackend runs every chunk on the calling goroutine.
type SerialBackend struct{}

func NewSerialBackend() *SerialBackend { return &SerialBackend{} }

func (s *SerialBackend) Name() string { return "serial" }
func (s *SerialBackend) Workers() int { return 1 }
func (s *SerialBackend) Close()       {}

func (s *SerialBackend) ParallelFor(n int, fn func(start, end int)) {
	if n > 0 {
		fn(0, n)
	}
}
