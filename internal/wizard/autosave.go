package wizard

import (
	"context"
	"sync"

	"vetting/internal/sections/models"
)

type imagePair struct {
	front string
	back  string
}

// DocumentAutosaver persists the identity document draft when its image URLs
// change. Repeated calls with the last saved pair are no-ops.
type DocumentAutosaver struct {
	save func(ctx context.Context, draft models.DocumentDraft) error

	mu   sync.Mutex
	last imagePair
}

func NewDocumentAutosaver(save func(ctx context.Context, draft models.DocumentDraft) error) *DocumentAutosaver {
	return &DocumentAutosaver{save: save}
}

// Prime records a pair that is already persisted, e.g. after loading.
func (a *DocumentAutosaver) Prime(front, back string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = imagePair{front: front, back: back}
}

// Save writes the draft unless the pair matches the last successful write.
// It reports whether a write happened. The memo only advances on success.
func (a *DocumentAutosaver) Save(ctx context.Context, docType models.DocumentType, front, back string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := imagePair{front: front, back: back}
	if next == a.last {
		return false, nil
	}
	draft := models.DocumentDraft{DocumentType: docType}
	if front != "" {
		draft.FrontImageURL = &next.front
	}
	if back != "" {
		draft.BackImageURL = &next.back
	}
	if err := a.save(ctx, draft); err != nil {
		return false, err
	}
	a.last = next
	return true, nil
}
