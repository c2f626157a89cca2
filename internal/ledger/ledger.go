// =============================================================================
// Revenue/Refund Analyzer - Edit Ledger
// =============================================================================
//
// The ledger holds pending corrections to flagged rows until the user
// confirms or discards them.
//
// KEYING:
//   Edits are keyed by (dataset kind, row ID, field). Row IDs are minted at
//   ingestion and never change, so a pending edit still points at the right
//   row after re-validation drops or reorders rows.
//
// LIFECYCLE:
//   Record  -> stores the new value, or forgets the key when the new value
//              equals the row's current value
//   Apply   -> writes every pending value into both the checked view and the
//              raw rows, then clears; the caller re-validates afterwards
//   Discard -> clears without writing
//
// =============================================================================

package ledger

import (
	"sync"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/logging"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// Edit is one pending correction.
type Edit struct {
	Kind  types.Kind
	RowID string
	Field string
	Value string
}

type editKey struct {
	kind  types.Kind
	rowID string
	field string
}

// Target is the pair of row collections an Apply writes into.
type Target struct {
	Raw     []types.RawRow
	Checked []types.CheckedRow
}

// ApplyResult counts what Apply did.
type ApplyResult struct {
	Applied int
	// Skipped counts edits whose row no longer exists.
	Skipped int
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	edits  map[editKey]string
	order  []editKey
	logger logging.Logger
}

// New creates an empty ledger. A nil logger discards output.
func New(logger logging.Logger) *Ledger {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Ledger{edits: make(map[editKey]string), logger: logger}
}

// Record stores newValue for the cell. When newValue equals currentValue
// (the row's value before any pending edit) the key is removed instead, so
// reverting a cell by hand leaves nothing pending. It reports whether an
// edit is pending for the cell afterwards.
func (l *Ledger) Record(kind types.Kind, rowID, field, newValue, currentValue string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := editKey{kind: kind, rowID: rowID, field: field}
	if newValue == currentValue {
		if _, ok := l.edits[k]; ok {
			delete(l.edits, k)
			l.removeOrder(k)
		}
		return false
	}
	if _, ok := l.edits[k]; !ok {
		l.order = append(l.order, k)
	}
	l.edits[k] = newValue
	return true
}

func (l *Ledger) removeOrder(k editKey) {
	for i, o := range l.order {
		if o == k {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

// Lookup returns the pending value for a cell.
func (l *Ledger) Lookup(kind types.Kind, rowID, field string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.edits[editKey{kind: kind, rowID: rowID, field: field}]
	return v, ok
}

// HasPending reports whether any edit is waiting.
func (l *Ledger) HasPending() bool {
	return l.Count() > 0
}

// Count is the number of pending edits.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.edits)
}

// Pending lists the edits for kind in the order they were first recorded.
func (l *Ledger) Pending(kind types.Kind) []Edit {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Edit
	for _, k := range l.order {
		if k.kind != kind {
			continue
		}
		out = append(out, Edit{Kind: k.kind, RowID: k.rowID, Field: k.field, Value: l.edits[k]})
	}
	return out
}

// Apply writes every pending edit into the matching targets and clears the
// ledger. Edits for kinds missing from targets, or for row IDs that no
// longer exist, are skipped and logged.
func (l *Ledger) Apply(targets map[types.Kind]Target) ApplyResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	var res ApplyResult
	for _, k := range l.order {
		value := l.edits[k]
		t, ok := targets[k.kind]
		if !ok {
			res.Skipped++
			l.logger.Warn("edit for %s row %s field %s skipped: dataset not loaded", k.kind, k.rowID, k.field)
			continue
		}

		found := false
		for i := range t.Raw {
			if t.Raw[i].ID == k.rowID {
				t.Raw[i].Set(k.field, value)
				found = true
				break
			}
		}
		for i := range t.Checked {
			if t.Checked[i].Row.ID == k.rowID {
				t.Checked[i].Row.Set(k.field, value)
				found = true
				break
			}
		}
		if !found {
			res.Skipped++
			l.logger.Warn("edit for %s row %s field %s skipped: row no longer exists", k.kind, k.rowID, k.field)
			continue
		}
		res.Applied++
	}

	l.logger.Debug("applied %d edit(s), skipped %d", res.Applied, res.Skipped)
	l.reset()
	return res
}

// Discard drops every pending edit.
func (l *Ledger) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reset()
}

// DiscardKind drops the pending edits of one kind and returns how many
// were dropped.
func (l *Ledger) DiscardKind(kind types.Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.order[:0]
	n := 0
	for _, k := range l.order {
		if k.kind == kind {
			delete(l.edits, k)
			n++
			continue
		}
		kept = append(kept, k)
	}
	l.order = kept
	return n
}

func (l *Ledger) reset() {
	l.edits = make(map[editKey]string)
	l.order = nil
}
