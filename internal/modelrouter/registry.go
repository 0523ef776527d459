package modelrouter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"secops-console/internal/model"

	"github.com/sirupsen/logrus"
)

// ErrModelNotFound is returned when activation names an unknown descriptor.
var ErrModelNotFound = errors.New("model not found")

// ErrInvalidProvider is returned for providers other than local/online.
var ErrInvalidProvider = errors.New("invalid provider")

const maxDescriptors = 200

// Provider names the two processing paths.
const (
	ProviderLocal  = "local"
	ProviderOnline = "online"
)

// ValidProvider reports whether p names a known provider.
func ValidProvider(p string) bool {
	return p == ProviderLocal || p == ProviderOnline
}

// Descriptor is one registered model.
type Descriptor struct {
	ID           string    `json:"id"`
	Provider     string    `json:"provider"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Capabilities []string  `json:"capabilities"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Registry holds the known model descriptors. At most one descriptor per
// provider is active at any time; activating one deactivates its siblings.
type Registry struct {
	mu     sync.RWMutex
	models []Descriptor
	logger *logrus.Logger
}

// NewRegistry seeds the registry with one active model per provider so
// routing decisions always resolve to a concrete descriptor.
func NewRegistry(logger *logrus.Logger) *Registry {
	now := time.Now()
	return &Registry{
		logger: logger,
		models: []Descriptor{
			{
				ID:           "local-secops-1.0.0",
				Provider:     ProviderLocal,
				Name:         "secops-local",
				Version:      "1.0.0",
				Capabilities: []string{"report", "summarize", "redact"},
				Active:       true,
				RegisteredAt: now,
			},
			{
				ID:           "online-secops-2025-12",
				Provider:     ProviderOnline,
				Name:         "secops-online",
				Version:      "2025-12",
				Capabilities: []string{"report", "summarize", "enrich"},
				Active:       true,
				RegisteredAt: now,
			},
		},
	}
}

// Register adds a descriptor at the head of the registry. If it arrives
// active, every sibling under the same provider is deactivated first.
func (r *Registry) Register(d Descriptor) (Descriptor, error) {
	if !ValidProvider(d.Provider) {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidProvider, d.Provider)
	}
	if d.RegisteredAt.IsZero() {
		d.RegisteredAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d.Active {
		for i := range r.models {
			if r.models[i].Provider == d.Provider {
				r.models[i].Active = false
			}
		}
	}
	r.models = append([]Descriptor{d}, r.models...)
	if len(r.models) > maxDescriptors {
		r.models = r.models[:maxDescriptors]
	}
	r.logger.Infof("Registered model %s (%s, active=%v)", d.ID, d.Provider, d.Active)
	return d, nil
}

// Activate marks the named descriptor active and deactivates its siblings.
func (r *Registry) Activate(provider, modelID string) (Descriptor, error) {
	if !ValidProvider(provider) {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidProvider, provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	found := -1
	for i := range r.models {
		if r.models[i].Provider == provider && r.models[i].ID == modelID {
			found = i
			break
		}
	}
	if found < 0 {
		return Descriptor{}, fmt.Errorf("%w: %s/%s", ErrModelNotFound, provider, modelID)
	}

	for i := range r.models {
		if r.models[i].Provider == provider {
			r.models[i].Active = false
		}
	}
	r.models[found].Active = true
	r.logger.Infof("Activated model %s (%s)", modelID, provider)
	return r.models[found], nil
}

// List returns the registered descriptors, newest first, optionally filtered
// by provider (empty matches all).
func (r *Registry) List(provider string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.models))
	for _, d := range r.models {
		if provider == "" || d.Provider == provider {
			out = append(out, d)
		}
	}
	return out
}

// Active resolves the active descriptor for a provider. With no active
// descriptor it falls back to the provider's first entry, and with no entry
// at all it synthesizes a placeholder so callers always get a usable ref.
func (r *Registry) Active(provider string) (Descriptor, error) {
	if !ValidProvider(provider) {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidProvider, provider)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var first *Descriptor
	for i := range r.models {
		d := r.models[i]
		if d.Provider != provider {
			continue
		}
		if d.Active {
			return d, nil
		}
		if first == nil {
			first = &r.models[i]
		}
	}
	if first != nil {
		return *first, nil
	}
	return Descriptor{
		ID:       provider + "-unknown",
		Provider: provider,
		Name:     provider + "-unknown",
		Version:  "0.0.0",
	}, nil
}

// ActiveRef resolves the active descriptor as a report model reference.
func (r *Registry) ActiveRef(provider string) model.ModelRef {
	d, err := r.Active(provider)
	if err != nil {
		return model.ModelRef{Provider: provider, Name: provider + "-unknown", Version: "0.0.0"}
	}
	return model.ModelRef{Provider: d.Provider, Name: d.Name, Version: d.Version}
}
