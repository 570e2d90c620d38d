package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// IDSet is an insertion-ordered set of ids. Adding an id twice is a no-op.
// It marshals to a JSON list so snapshots stay stable across restores.
type IDSet struct {
	order []uuid.UUID
	index map[uuid.UUID]struct{}
}

// NewIDSet builds a set from ids, dropping duplicates.
func NewIDSet(ids ...uuid.UUID) IDSet {
	var s IDSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was newly added.
func (s *IDSet) Add(id uuid.UUID) bool {
	if s.index == nil {
		s.index = make(map[uuid.UUID]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Has reports whether id is in the set.
func (s IDSet) Has(id uuid.UUID) bool {
	_, ok := s.index[id]
	return ok
}

// Remove deletes id and reports whether it was present.
func (s *IDSet) Remove(id uuid.UUID) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of ids.
func (s IDSet) Len() int { return len(s.order) }

// IDs returns a copy of the ids in insertion order.
func (s IDSet) IDs() []uuid.UUID {
	out := make([]uuid.UUID, len(s.order))
	copy(out, s.order)
	return out
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	return NewIDSet(s.order...)
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
