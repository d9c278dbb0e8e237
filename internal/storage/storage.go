package storage

import (
	"errors"
	"image"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxIcons bounds the library when no capacity is configured.
const DefaultMaxIcons = 256

var (
	// ErrNotFound indicates no icon exists for the given ID.
	ErrNotFound = errors.New("icon not found")
	// ErrInvalidIcon indicates a missing or zero-area image.
	ErrInvalidIcon = errors.New("icon image must be non-empty")
	// ErrCapacity indicates the library already holds the maximum number of icons.
	ErrCapacity = errors.New("icon library is full")
)

// Icon describes a stored icon.
type Icon struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"createdAt"`
}

// Storage provides access to the icon library used by the composer.
type Storage interface {
	PutIcon(name, format string, img image.Image) (Icon, error)
	GetIcon(id string) (Icon, image.Image, error)
	ListIcons() ([]Icon, error)
	DeleteIcon(id string) error
}

type entry struct {
	meta Icon
	img  image.Image
}

// MemoryStorage keeps icons in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	icons    map[string]entry
	order    []string
	maxIcons int
	clock    func() time.Time
	newID    func() string
}

// Option configures MemoryStorage.
type Option func(*MemoryStorage)

// WithMaxIcons caps the number of stored icons. Non-positive values keep the default.
func WithMaxIcons(n int) Option {
	return func(s *MemoryStorage) {
		if n > 0 {
			s.maxIcons = n
		}
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// NewMemoryStorage initialises an empty library.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		icons:    make(map[string]entry),
		maxIcons: DefaultMaxIcons,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutIcon stores img and returns its metadata. Blank names fall back to the ID.
func (s *MemoryStorage) PutIcon(name, format string, img image.Image) (Icon, error) {
	if img == nil || img.Bounds().Empty() {
		return Icon{}, ErrInvalidIcon
	}

	b := img.Bounds()
	meta := Icon{
		ID:     s.newID(),
		Name:   strings.TrimSpace(name),
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	if meta.Name == "" {
		meta.Name = meta.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.icons) >= s.maxIcons {
		return Icon{}, ErrCapacity
	}
	meta.CreatedAt = s.clock()
	s.icons[meta.ID] = entry{meta: meta, img: img}
	s.order = append(s.order, meta.ID)

	return meta, nil
}

// GetIcon returns the metadata and image stored under id.
func (s *MemoryStorage) GetIcon(id string) (Icon, image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.icons[id]
	if !ok {
		return Icon{}, nil, ErrNotFound
	}
	return e.meta, e.img, nil
}

// ListIcons returns metadata for every icon in insertion order.
func (s *MemoryStorage) ListIcons() ([]Icon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Icon, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.icons[id].meta)
	}
	return out, nil
}

// DeleteIcon removes the icon stored under id.
func (s *MemoryStorage) DeleteIcon(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.icons[id]; !ok {
		return ErrNotFound
	}
	delete(s.icons, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}
