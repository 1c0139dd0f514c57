package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godeepar/geoxchange/transform"
)

// ErrNoLayer is returned for a layer name the host does not know.
var ErrNoLayer = errors.New("no such layer")

// API is the capability set the conversion core needs from a host
// application. Implementations that mutate host state are expected to be
// called from the host's own thread.
type API interface {
	ReadGeometry(layer string) ([]*Feature, error)
	WriteGeometry(layer string, features []*Feature) error
	Reproject(x, y float64, from, to transform.CRS) (float64, float64, error)
	GetRenderer(layer string) (Renderer, error)
	SetRenderer(layer string, r Renderer) error
}

// LayerCreator is implemented by hosts that can create a layer with its
// schema and CRS in one step.
type LayerCreator interface {
	CreateLayer(l *Layer) error
}

// Reprojector exposes the host reprojection call as a transform strategy.
func Reprojector(api API) transform.Reprojector {
	return transform.ReprojectorFunc(api.Reproject)
}

// Memory is an in-process host keeping layers in insertion order. It is
// safe for concurrent use.
type Memory struct {
	// Reprojector backs Reproject; transform.DefaultReprojector when nil.
	Reprojector transform.Reprojector

	mu     sync.RWMutex
	order  []string
	layers map[string]*Layer
}

// NewMemory ...
func NewMemory(layers ...*Layer) *Memory {
	m := &Memory{layers: make(map[string]*Layer)}
	for _, l := range layers {
		m.put(l)
	}
	return m
}

func (m *Memory) put(l *Layer) {
	if _, ok := m.layers[l.Name]; !ok {
		m.order = append(m.order, l.Name)
	}
	m.layers[l.Name] = l
}

// CreateLayer adds l, replacing a layer of the same name.
func (m *Memory) CreateLayer(l *Layer) error {
	if l == nil || l.Name == "" {
		return errors.New("layer without name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(l)
	return nil
}

// Layer ...
func (m *Memory) Layer(name string) (*Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.layers[name]
	return l, ok
}

// Names returns the layer names in insertion order.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

func (m *Memory) ReadGeometry(layer string) ([]*Feature, error) {
	l, ok := m.Layer(layer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLayer, layer)
	}
	return l.Features, nil
}

// WriteGeometry appends features, creating the layer when needed.
func (m *Memory) WriteGeometry(layer string, features []*Feature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.layers[layer]
	if !ok {
		l = &Layer{Name: layer}
		m.put(l)
	}
	l.Features = append(l.Features, features...)
	return nil
}

func (m *Memory) Reproject(x, y float64, from, to transform.CRS) (float64, float64, error) {
	r := m.Reprojector
	if r == nil {
		r = transform.DefaultReprojector
	}
	return r.Reproject(x, y, from, to)
}

func (m *Memory) GetRenderer(layer string) (Renderer, error) {
	l, ok := m.Layer(layer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLayer, layer)
	}
	return l.Renderer, nil
}

func (m *Memory) SetRenderer(layer string, r Renderer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.layers[layer]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoLayer, layer)
	}
	l.Renderer = r
	return nil
}

// ReadGrid returns the grid of a raster layer.
func (m *Memory) ReadGrid(layer string) (*Grid, error) {
	l, ok := m.Layer(layer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLayer, layer)
	}
	if l.Grid == nil {
		return nil, fmt.Errorf("%w: %s is not a raster layer", ErrInvalidGrid, layer)
	}
	return l.Grid, nil
}

// Apply hands a converted layer to the host in one step.
func Apply(api API, l *Layer) error {
	if c, ok := api.(LayerCreator); ok {
		return c.CreateLayer(l)
	}
	if err := api.WriteGeometry(l.Name, l.Features); err != nil {
		return err
	}
	if l.Renderer != nil {
		return api.SetRenderer(l.Name, l.Renderer)
	}
	return nil
}
