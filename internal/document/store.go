package document

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

var (
	ErrNotFound     = errors.New("element not found")
	ErrDuplicateID  = errors.New("duplicate element id")
	ErrInvalidPatch = errors.New("invalid patch")
)

// UpdateOptions controls how an update is recorded.
type UpdateOptions struct {
	// PushHistory records the pre-update state as an undo step. Live gesture
	// ticks write with PushHistory false; the final commit writes with true.
	PushHistory bool
}

// Model is the document-model contract the selection engine consumes.
type Model interface {
	GetElement(id string) (Element, bool)
	AllElements() []Element
	UpdateElement(id string, patch Patch, opts UpdateOptions) error
	UpdateElements(batch []PatchEntry, opts UpdateOptions) error
	Selection() []string
	SubscribeSelection(fn func(ids []string)) (cancel func())
	SubscribeChanges(fn func(ids []string)) (cancel func())
	WithUndo(label string, fn func())
}

// HistoryEntry is one undo step. Before holds the state of every touched
// element prior to the step; a nil value means the element did not exist.
type HistoryEntry struct {
	Label  string
	Before map[string]*Element
	order  []string
	zIndex map[string]int
}

// Store is an in-memory Model.
type Store struct {
	mu        sync.RWMutex
	elements  map[string]Element
	order     []string
	selection []string

	history   []HistoryEntry
	pending   *HistoryEntry
	undoDepth int

	nextSub    int
	selSubs    map[int]func([]string)
	changeSubs map[int]func([]string)
}

var _ Model = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		elements:   make(map[string]Element),
		selSubs:    make(map[int]func([]string)),
		changeSubs: make(map[int]func([]string)),
	}
}

// NewStoreFromDocument creates a store holding doc.
func NewStoreFromDocument(doc *Document) (*Store, error) {
	s := NewStore()
	if err := s.Load(doc); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the store content with doc and clears the history.
// Subscribers are notified of the full change and the new selection.
func (s *Store) Load(doc *Document) error {
	elements := make(map[string]Element, len(doc.Elements))
	order := make([]string, 0, len(doc.Elements))
	for _, el := range doc.Elements {
		if _, dup := elements[el.ID]; dup {
			return fmt.Errorf("load %q: %w", el.ID, ErrDuplicateID)
		}
		if err := CheckID(el); err != nil {
			return fmt.Errorf("load %s element: %w", el.Kind, err)
		}
		elements[el.ID] = el.Clone()
		order = append(order, el.ID)
	}

	s.mu.Lock()
	previous := s.order
	s.elements = elements
	s.order = order
	s.selection = s.filterExistingLocked(doc.Selection)
	s.history = nil
	s.pending = nil
	sel := append([]string(nil), s.selection...)
	s.mu.Unlock()

	s.notifyChanges(mergeIDs(previous, order))
	s.notifySelection(sel)
	return nil
}

// Snapshot returns the store content as a Document.
func (s *Store) Snapshot() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := &Document{Selection: append([]string(nil), s.selection...)}
	for _, id := range s.order {
		doc.Elements = append(doc.Elements, s.elements[id].Clone())
	}
	return doc
}

func (s *Store) GetElement(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[id]
	if !ok {
		return Element{}, false
	}
	return el.Clone(), true
}

// AllElements returns every element in z-order.
func (s *Store) AllElements() []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.elements[id].Clone())
	}
	return out
}

// AddElement inserts a new element on top of the z-order.
func (s *Store) AddElement(el Element, opts UpdateOptions) error {
	if el.ID == "" {
		return fmt.Errorf("add %s element: %w: empty id", el.Kind, ErrInvalidPatch)
	}
	if err := CheckID(el); err != nil {
		return fmt.Errorf("add %s element: %w", el.Kind, err)
	}
	s.mu.Lock()
	if _, ok := s.elements[el.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("add %q: %w", el.ID, ErrDuplicateID)
	}
	if opts.PushHistory {
		s.recordLocked("add", []string{el.ID})
	}
	s.elements[el.ID] = el.Clone()
	s.order = append(s.order, el.ID)
	s.mu.Unlock()

	s.notifyChanges([]string{el.ID})
	return nil
}

// RemoveElements deletes the given elements and drops them from the
// selection. Unknown ids are reported with ErrNotFound; known ones are still
// removed.
func (s *Store) RemoveElements(ids []string, opts UpdateOptions) error {
	var errs []error
	s.mu.Lock()
	var removed []string
	for _, id := range ids {
		if _, ok := s.elements[id]; !ok {
			errs = append(errs, fmt.Errorf("remove %q: %w", id, ErrNotFound))
			continue
		}
		removed = append(removed, id)
	}
	if opts.PushHistory && len(removed) > 0 {
		s.recordLocked("remove", removed)
	}
	for _, id := range removed {
		delete(s.elements, id)
	}
	s.order = s.filterExistingLocked(s.order)
	before := len(s.selection)
	s.selection = s.filterExistingLocked(s.selection)
	selChanged := before != len(s.selection)
	sel := append([]string(nil), s.selection...)
	s.mu.Unlock()

	if len(removed) > 0 {
		s.notifyChanges(removed)
	}
	if selChanged {
		s.notifySelection(sel)
	}
	return errors.Join(errs...)
}

func (s *Store) UpdateElement(id string, patch Patch, opts UpdateOptions) error {
	return s.UpdateElements([]PatchEntry{{ID: id, Patch: patch}}, opts)
}

// UpdateElements applies a batch of patches as one change notification.
// Entries for unknown ids are skipped and reported with ErrNotFound.
func (s *Store) UpdateElements(batch []PatchEntry, opts UpdateOptions) error {
	var errs []error
	var touched []string

	s.mu.Lock()
	for _, entry := range batch {
		if _, ok := s.elements[entry.ID]; !ok {
			errs = append(errs, fmt.Errorf("update %q: %w", entry.ID, ErrNotFound))
			continue
		}
		touched = append(touched, entry.ID)
	}
	if opts.PushHistory && len(touched) > 0 {
		s.recordLocked("update", touched)
	}
	for _, entry := range batch {
		el, ok := s.elements[entry.ID]
		if !ok {
			continue
		}
		entry.Patch.Apply(&el)
		s.elements[entry.ID] = el
	}
	s.mu.Unlock()

	if len(touched) > 0 {
		s.notifyChanges(dedupe(touched))
	}
	return errors.Join(errs...)
}

// WithUndo groups every history-recording update made by fn into a single
// undo step named label. Nested calls join the outermost step.
func (s *Store) WithUndo(label string, fn func()) {
	s.mu.Lock()
	s.undoDepth++
	if s.undoDepth == 1 {
		s.pending = &HistoryEntry{Label: label, Before: make(map[string]*Element)}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.undoDepth--
		if s.undoDepth > 0 {
			return
		}
		if s.pending != nil && len(s.pending.Before) > 0 {
			s.history = append(s.history, *s.pending)
		}
		s.pending = nil
	}()

	fn()
}

// recordLocked stores before-images of ids, into the open WithUndo step or a
// new single-change step.
func (s *Store) recordLocked(label string, ids []string) {
	entry := s.pending
	standalone := entry == nil
	if standalone {
		entry = &HistoryEntry{Label: label, Before: make(map[string]*Element)}
	}
	for _, id := range ids {
		if _, seen := entry.Before[id]; seen {
			continue
		}
		if el, ok := s.elements[id]; ok {
			c := el.Clone()
			entry.Before[id] = &c
			if entry.zIndex == nil {
				entry.zIndex = make(map[string]int)
			}
			entry.zIndex[id] = slices.Index(s.order, id)
		} else {
			entry.Before[id] = nil
		}
		entry.order = append(entry.order, id)
	}
	if standalone {
		s.history = append(s.history, *entry)
	}
}

// Undo reverts the most recent history step and returns its label.
func (s *Store) Undo() (string, bool) {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return "", false
	}
	entry := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	var restored []string
	for _, id := range entry.order {
		before := entry.Before[id]
		if before == nil {
			delete(s.elements, id)
			continue
		}
		if _, exists := s.elements[id]; !exists {
			restored = append(restored, id)
		}
		s.elements[id] = before.Clone()
	}
	s.order = s.filterExistingLocked(s.order)

	// removed elements go back to their recorded paint position
	sort.SliceStable(restored, func(i, j int) bool {
		return entry.zIndex[restored[i]] < entry.zIndex[restored[j]]
	})
	for _, id := range restored {
		at := min(max(entry.zIndex[id], 0), len(s.order))
		s.order = slices.Insert(s.order, at, id)
	}
	s.mu.Unlock()

	s.notifyChanges(entry.order)
	return entry.Label, true
}

// History returns the labels of the recorded undo steps, oldest first.
func (s *Store) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := make([]string, len(s.history))
	for i, h := range s.history {
		labels[i] = h.Label
	}
	return labels
}

func (s *Store) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selection...)
}

// SetSelection replaces the selection. Unknown ids are dropped.
func (s *Store) SetSelection(ids []string) {
	s.mu.Lock()
	s.selection = s.filterExistingLocked(dedupe(ids))
	sel := append([]string(nil), s.selection...)
	s.mu.Unlock()
	s.notifySelection(sel)
}

func (s *Store) SubscribeSelection(fn func(ids []string)) func() {
	return s.subscribe(s.selSubs, fn)
}

func (s *Store) SubscribeChanges(fn func(ids []string)) func() {
	return s.subscribe(s.changeSubs, fn)
}

func (s *Store) subscribe(subs map[int]func([]string), fn func([]string)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notifySelection(ids []string) {
	for _, fn := range s.listeners(s.selSubs) {
		fn(append([]string(nil), ids...))
	}
}

func (s *Store) notifyChanges(ids []string) {
	if len(ids) == 0 {
		return
	}
	for _, fn := range s.listeners(s.changeSubs) {
		fn(append([]string(nil), ids...))
	}
}

// listeners snapshots subscribers in registration order so callbacks run
// without the lock held.
func (s *Store) listeners(subs map[int]func([]string)) []func([]string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]int, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]func([]string), len(keys))
	for i, k := range keys {
		out[i] = subs[k]
	}
	return out
}

func (s *Store) filterExistingLocked(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.elements[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func mergeIDs(a, b []string) []string {
	return dedupe(append(append([]string(nil), a...), b...))
}
