// Package store persists archive images.
package store

import (
	"context"
	"slices"
	"sync"

	"atelier/internal/archive/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.Mutex
	images map[id.ImageID]*models.Image
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{images: make(map[id.ImageID]*models.Image)}
}

// Insert stores img unless the owner already holds limit images, in which
// case it returns sentinel.ErrInsufficient. A negative limit means no cap.
func (s *InMemoryStore) Insert(_ context.Context, img *models.Image, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[img.ID]; ok {
		return sentinel.ErrConflict
	}
	if limit >= 0 && s.countLocked(img.UserID) >= limit {
		return sentinel.ErrInsufficient
	}
	s.images[img.ID] = clone(img)
	return nil
}

func (s *InMemoryStore) Count(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(userID), nil
}

// Get returns the image only when userID owns it.
func (s *InMemoryStore) Get(_ context.Context, userID id.UserID, imageID id.ImageID) (*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[imageID]
	if !ok || img.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return clone(img), nil
}

// List returns the owner's images newest first.
func (s *InMemoryStore) List(_ context.Context, userID id.UserID, limit, offset int) ([]*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mine []*models.Image
	for _, img := range s.images {
		if img.UserID == userID {
			mine = append(mine, img)
		}
	}
	slices.SortFunc(mine, func(a, b *models.Image) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if offset >= len(mine) {
		return []*models.Image{}, nil
	}
	mine = mine[offset:min(offset+limit, len(mine))]
	out := make([]*models.Image, 0, len(mine))
	for _, img := range mine {
		out = append(out, clone(img))
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID, imageID id.ImageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[imageID]
	if !ok || img.UserID != userID {
		return sentinel.ErrNotFound
	}
	delete(s.images, imageID)
	return nil
}

func (s *InMemoryStore) countLocked(userID id.UserID) int {
	n := 0
	for _, img := range s.images {
		if img.UserID == userID {
			n++
		}
	}
	return n
}

func clone(img *models.Image) *models.Image {
	out := *img
	out.Tags = slices.Clone(img.Tags)
	out.Config = slices.Clone(img.Config)
	return &out
}
