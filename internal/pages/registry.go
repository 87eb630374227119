package pages

import (
	"sort"
	"sync"

	"github.com/aretw0/accreq/pkg/page"
)

// Factory creates a fresh page instance for one request.
type Factory func() page.Page

// Registry maps page names to factories.
type Registry struct {
	mu    sync.RWMutex
	pages map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pages: make(map[string]Factory),
	}
}

// Register adds a page to the registry.
// If a page with the same name exists, it is overwritten.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[name] = f
}

// Resolve creates the page registered under name. The empty name resolves to
// the dashboard.
func (r *Registry) Resolve(name string) (page.Page, bool) {
	if name == "" {
		name = MainPage
	}

	r.mu.RLock()
	f, ok := r.pages[name]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return f(), true
}

// Names lists the registered pages.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	MainPage            = "main"
	PreferencesPage     = "preferences"
	EmailManagementPage = "emailManagement"
)

// Default returns a registry with every page of the tool.
func Default() *Registry {
	r := NewRegistry()
	r.Register(MainPage, func() page.Page { return &Dashboard{} })
	r.Register(PreferencesPage, func() page.Page { return &Preferences{} })
	r.Register(EmailManagementPage, func() page.Page { return &EmailManagement{} })
	return r
}
