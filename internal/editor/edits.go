package editor

import (
	"fmt"

	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
)

// Direction is the step of MoveBlock.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// edit applies fn to the current document. fn reports whether it changed
// anything; only a change stamps the edit time and marks the session dirty.
func (s *Session) edit(fn func(doc domain.PageContent) (domain.PageContent, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	next, changed, err := fn(s.doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	next.Metadata.LastEditedAt = s.now()
	s.doc = next
	if s.selected != "" && document.IndexOf(next, s.selected) < 0 {
		s.selected = ""
	}
	s.markDirtyLocked()
	return nil
}

// AddBlock inserts a block of type t at position at (document.AtEnd to
// append) and selects it.
func (s *Session) AddBlock(t domain.BlockType, at int) (domain.Block, error) {
	var added domain.Block
	err := s.edit(func(doc domain.PageContent) (domain.PageContent, bool, error) {
		next, b, err := s.docs.Insert(doc, t, at)
		if err != nil {
			return doc, false, err
		}
		added = b
		return next, true, nil
	})
	if err != nil {
		return domain.Block{}, err
	}
	s.mu.Lock()
	s.selected = added.ID
	s.mu.Unlock()
	return added, nil
}

// UpdateBlock merges partial into the props of block id.
func (s *Session) UpdateBlock(id string, partial domain.Props) error {
	return s.edit(func(doc domain.PageContent) (domain.PageContent, bool, error) {
		next, err := document.BulkUpdateProps(doc, id, partial)
		return next, err == nil, err
	})
}

// MoveBlock moves block id one step. A move past either end leaves the
// session untouched.
func (s *Session) MoveBlock(id string, dir Direction) error {
	return s.edit(func(doc domain.PageContent) (domain.PageContent, bool, error) {
		i := document.IndexOf(doc, id)
		if i < 0 {
			return doc, false, domain.OpError("move", domain.ErrBlockNotFound, "%s", id)
		}
		switch dir {
		case Up:
			if i == 0 {
				return doc, false, nil
			}
			next, err := document.MoveUp(doc, id)
			return next, err == nil, err
		case Down:
			if i == len(doc.Blocks)-1 {
				return doc, false, nil
			}
			next, err := document.MoveDown(doc, id)
			return next, err == nil, err
		default:
			return doc, false, domain.OpError("move", fmt.Errorf("unknown direction %q", dir), "")
		}
	})
}

// ReorderBlock drags the block at from to position to.
func (s *Session) ReorderBlock(from, to int) error {
	return s.edit(func(doc domain.PageContent) (domain.PageContent, bool, error) {
		next, err := document.ReorderByDrag(doc, from, to)
		return next, err == nil && from != to, err
	})
}

// DuplicateBlock inserts a copy of block id right after it and selects the copy.
func (s *Session) DuplicateBlock(id string) (domain.Block, error) {
	var dup domain.Block
	err := s.edit(func(doc domain.PageContent) (domain.PageContent, bool, error) {
		next, b, err := s.docs.Duplicate(doc, id)
		if err != nil {
			return doc, false, err
		}
		dup = b
		return next, true, nil
	})
	if err != nil {
		return domain.Block{}, err
	}
	s.mu.Lock()
	s.selected = dup.ID
	s.mu.Unlock()
	return dup, nil
}

// DeleteBlock removes block id. Deleting an absent block is a no-op.
func (s *Session) DeleteBlock(id string) error {
	return s.edit(func(doc domain.PageContent) (domain.PageContent, bool, error) {
		if document.IndexOf(doc, id) < 0 {
			return doc, false, nil
		}
		return document.Remove(doc, id), true, nil
	})
}

// ApplyTemplate replaces the document with a fresh instance of t. The
// version continues from the replaced document.
func (s *Session) ApplyTemplate(t domain.Template) error {
	return s.edit(func(doc domain.PageContent) (domain.PageContent, bool, error) {
		next := s.tmpl.Instantiate(t)
		next.Metadata.Version = doc.Metadata.Version + 1
		return next, true, nil
	})
}

// Optimize drops blocks without content. It reports how many were removed.
func (s *Session) Optimize() (int, error) {
	removed := 0
	err := s.edit(func(doc domain.PageContent) (domain.PageContent, bool, error) {
		next := s.ser.Optimize(doc)
		removed = len(doc.Blocks) - len(next.Blocks)
		return next, true, nil
	})
	return removed, err
}

// SelectBlock selects block id; an empty id clears the selection.
func (s *Session) SelectBlock(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && document.IndexOf(s.doc, id) < 0 {
		return domain.OpError("select", domain.ErrBlockNotFound, "%s", id)
	}
	s.selected = id
	return nil
}

func (s *Session) SetPreviewDevice(d PreviewDevice) error {
	if !d.Valid() {
		return fmt.Errorf("unknown preview device %q", d)
	}
	s.mu.Lock()
	s.device = d
	s.mu.Unlock()
	return nil
}

// TogglePreview flips preview mode and returns the new value.
func (s *Session) TogglePreview() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewMode = !s.previewMode
	return s.previewMode
}
