// =============================================================================
// Revenue/Refund Analyzer - Pipeline Module
// =============================================================================
//
// A Session holds the two datasets of one working session and runs them
// through the pipeline:
//
//   1. Decode the upload (CSV or XLSX)
//   2. Normalize and validate every row
//   3. Record corrections for flagged rows in the edit ledger
//   4. Apply the corrections and validate again
//   5. Hand the issue-free rows off to the report store
//
// DATASETS:
//   Revenue and refund data are loaded independently. A failed upload leaves
//   the other dataset, and the previous copy of the same dataset, untouched.
//
// ROW IDENTITY:
//   Every row keeps the ID it was given at ingestion. Edits are addressed by
//   that ID, so they survive re-validation and blank-row removal.
//
// =============================================================================

package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/config"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/ingest"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/ledger"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/logging"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/report"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/store"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/validation"
)

var (
	// ErrNotLoaded is returned when an operation needs a dataset that has
	// not been loaded.
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrUnresolvedIssues is returned by Handoff while a dataset still has
	// flagged rows.
	ErrUnresolvedIssues = errors.New("dataset has unresolved issues")

	// ErrNoSuchRow is returned when an edit names a row that does not exist.
	ErrNoSuchRow = errors.New("no such row")
)

// =============================================================================
// DATASET
// =============================================================================

// Dataset is one loaded upload and its latest validation result.
type Dataset struct {
	Kind      types.Kind
	Source    string
	Encoding  string
	Truncated bool

	// Raw holds the rows as decoded, with edits applied.
	Raw    []types.RawRow
	Result validation.Result

	LoadedAt time.Time
}

// Stats summarizes a dataset for display.
type Stats struct {
	Kind      types.Kind
	Source    string
	Rows      int
	Checked   int
	Issues    int
	Truncated bool
}

// Stats returns the dataset's counters.
func (d *Dataset) Stats() Stats {
	return Stats{
		Kind:      d.Kind,
		Source:    d.Source,
		Rows:      len(d.Raw),
		Checked:   len(d.Result.Checked),
		Issues:    len(d.Result.Issues),
		Truncated: d.Truncated,
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	cfg       *config.Config
	log       logging.Logger
	validator *validation.Validator
	ledger    *ledger.Ledger
	datasets  map[types.Kind]*Dataset
}

// New creates an empty session. A nil cfg means defaults.
func New(cfg *config.Config, logger logging.Logger) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Session{
		cfg:       cfg,
		log:       logger,
		validator: cfg.Validator(),
		ledger:    ledger.New(logger),
		datasets:  make(map[types.Kind]*Dataset),
	}
}

// Load decodes the file at path as the given kind and validates it.
//
// RETURNS:
//   - The new dataset.
//   - An error if the file could not be decoded. The session is unchanged.
func (s *Session) Load(kind types.Kind, path string) (*Dataset, error) {
	s.log.Info("Loading %s data from: %s", kind, path)

	res, err := ingest.LoadFile(path, ingest.Options{
		RowCap:     s.cfg.Input.RowCap,
		Delimiters: s.cfg.DelimiterRunes(),
	})
	if err != nil {
		s.log.Warn("%s upload rejected: %v", s.cfg.DisplayName(kind), err)
		return nil, fmt.Errorf("failed to load %s data: %w", kind, err)
	}
	if res.Truncated {
		s.log.Warn("%s: only the first %d rows were kept", path, s.cfg.Input.RowCap)
	}

	d := s.LoadRows(kind, path, res.Rows)
	s.mu.Lock()
	d.Encoding = res.Encoding
	d.Truncated = res.Truncated
	s.mu.Unlock()
	return d, nil
}

// LoadRows replaces the dataset of the given kind with rows and validates
// them. Pending edits for the old dataset are dropped.
func (s *Session) LoadRows(kind types.Kind, source string, rows []types.RawRow) *Dataset {
	d := &Dataset{
		Kind:     kind,
		Source:   source,
		Raw:      rows,
		LoadedAt: time.Now(),
	}
	d.Result = s.validator.Validate(d.Raw, kind)

	s.mu.Lock()
	s.datasets[kind] = d
	s.mu.Unlock()

	if n := s.ledger.DiscardKind(kind); n > 0 {
		s.log.Warn("dropped %d pending edit(s) for replaced %s data", n, kind)
	}

	s.log.Info("%s: %d row(s), %d issue(s)", s.cfg.DisplayName(kind), len(d.Result.Checked), len(d.Result.Issues))
	return d
}

// Dataset returns the loaded dataset of the given kind.
func (s *Session) Dataset(kind types.Kind) (*Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datasets[kind]
	return d, ok
}

// Revalidate runs validation again over the dataset's raw rows.
func (s *Session) Revalidate(kind types.Kind) (validation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revalidateLocked(kind)
}

func (s *Session) revalidateLocked(kind types.Kind) (validation.Result, error) {
	d, ok := s.datasets[kind]
	if !ok {
		return validation.Result{}, fmt.Errorf("%s: %w", kind, ErrNotLoaded)
	}
	d.Result = s.validator.Validate(d.Raw, kind)
	return d.Result, nil
}

// =============================================================================
// EDITS
// =============================================================================

// Edit records a correction addressed by the 1-based row number used in
// issue messages.
func (s *Session) Edit(kind types.Kind, displayRow int, field, value string) error {
	s.mu.Lock()
	d, ok := s.datasets[kind]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", kind, ErrNotLoaded)
	}
	if displayRow < 1 || displayRow > len(d.Raw) {
		s.mu.Unlock()
		return fmt.Errorf("%s row %d: %w", kind, displayRow, ErrNoSuchRow)
	}
	id := d.Raw[displayRow-1].ID
	s.mu.Unlock()
	return s.EditByID(kind, id, field, value)
}

// EditByID records a correction for the row with the given ID. The current
// value is the normalized one when the row survived validation.
func (s *Session) EditByID(kind types.Kind, rowID, field, value string) error {
	s.mu.Lock()
	d, ok := s.datasets[kind]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", kind, ErrNotLoaded)
	}
	current, found := currentValue(d, rowID, field)
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("%s row %s: %w", kind, rowID, ErrNoSuchRow)
	}

	if s.ledger.Record(kind, rowID, field, value, current) {
		s.log.Debug("recorded edit %s/%s %s: %q -> %q", kind, rowID, field, current, value)
	}
	return nil
}

func currentValue(d *Dataset, rowID, field string) (string, bool) {
	for _, c := range d.Result.Checked {
		if c.Row.ID == rowID {
			return c.Row.Get(field), true
		}
	}
	for _, r := range d.Raw {
		if r.ID == rowID {
			return types.Stringify(r.Get(field)), true
		}
	}
	return "", false
}

// PendingEdits lists unconfirmed edits of one kind.
func (s *Session) PendingEdits(kind types.Kind) []ledger.Edit {
	return s.ledger.Pending(kind)
}

// HasPendingEdits reports whether any edit awaits confirmation.
func (s *Session) HasPendingEdits() bool {
	return s.ledger.HasPending()
}

// ConfirmEdits writes every pending edit into the datasets and validates
// the touched datasets again.
func (s *Session) ConfirmEdits() ledger.ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make(map[types.Kind]ledger.Target, len(s.datasets))
	for kind, d := range s.datasets {
		targets[kind] = ledger.Target{Raw: d.Raw, Checked: d.Result.Checked}
	}
	res := s.ledger.Apply(targets)

	for kind := range s.datasets {
		if _, err := s.revalidateLocked(kind); err != nil {
			s.log.Error("revalidation failed: %v", err)
		}
	}
	s.log.Info("confirmed %d edit(s), skipped %d", res.Applied, res.Skipped)
	return res
}

// DiscardEdits drops every pending edit.
func (s *Session) DiscardEdits() {
	s.ledger.Discard()
}

// =============================================================================
// HAND-OFF
// =============================================================================

// Ready reports whether every loaded dataset is free of issues and at least
// one dataset is loaded.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.datasets) == 0 {
		return false
	}
	for _, d := range s.datasets {
		if !d.Result.Ready() {
			return false
		}
	}
	return true
}

// Issues returns the issues of one dataset.
func (s *Session) Issues(kind types.Kind) []types.Issue {
	d, ok := s.Dataset(kind)
	if !ok {
		return nil
	}
	return d.Result.Issues
}

// ReportData returns the issue-free rows of both datasets.
func (s *Session) ReportData() report.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out report.Data
	if d, ok := s.datasets[types.Revenue]; ok {
		out.Revenue = d.Result.Clean()
	}
	if d, ok := s.datasets[types.Refund]; ok {
		out.Refund = d.Result.Clean()
	}
	return out
}

// Handoff writes the loaded datasets to st. It refuses while any loaded
// dataset has issues; a dataset that was never loaded keeps its slot.
func (s *Session) Handoff(st *store.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.datasets) == 0 {
		return ErrNotLoaded
	}
	for kind, d := range s.datasets {
		if len(d.Result.Issues) > 0 {
			return fmt.Errorf("%s (%d issue(s)): %w", s.cfg.DisplayName(kind), len(d.Result.Issues), ErrUnresolvedIssues)
		}
	}
	for kind, d := range s.datasets {
		if err := st.Save(store.SlotFor(kind), d.Result.Clean()); err != nil {
			return fmt.Errorf("failed to hand off %s data: %w", kind, err)
		}
		s.log.Info("handed off %d %s row(s) to %s", len(d.Result.Checked), kind, st.Path())
	}
	return nil
}

// Stats lists counters for the loaded datasets in kind order.
func (s *Session) Stats() []Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Stats
	for _, kind := range types.Kinds() {
		if d, ok := s.datasets[kind]; ok {
			out = append(out, d.Stats())
		}
	}
	return out
}
