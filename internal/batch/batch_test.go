package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/talentops/hrsync/internal/batch/domain"
	"github.com/talentops/hrsync/shared/hrapi"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeAPI is an in-memory HR platform for engine tests. Update payloads are
// remembered per record so read-back returns what was written.
type fakeAPI struct {
	mu         sync.Mutex
	employees  []hrapi.Employee
	remoteOnly map[string]hrapi.Employee
	lists      map[string][]hrapi.ListValue

	updateCode  int
	updateCodes map[string]int
	updateErrs  map[string]error
	listErr     error
	searchErr   error
	onUpdate    func(recordID string)

	written     map[string]map[string]any
	updateCalls map[string]int
	readBacks   map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		remoteOnly:  map[string]hrapi.Employee{},
		lists:       map[string][]hrapi.ListValue{},
		updateCode:  200,
		updateCodes: map[string]int{},
		updateErrs:  map[string]error{},
		written:     map[string]map[string]any{},
		updateCalls: map[string]int{},
		readBacks:   map[string]int{},
	}
}

// addEmployees seeds n snapshot employees with ids id-0..id-n-1 and
// employee ids EMP-0..EMP-n-1.
func (f *fakeAPI) addEmployees(n int) {
	for i := 0; i < n; i++ {
		f.employees = append(f.employees, hrapi.Employee{
			ID:         fmt.Sprintf("id-%d", i),
			EmployeeID: fmt.Sprintf("EMP-%d", i),
			Email:      fmt.Sprintf("emp%d@example.com", i),
		})
	}
}

func (f *fakeAPI) ListEmployees(ctx context.Context) ([]hrapi.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]hrapi.Employee(nil), f.employees...), nil
}

func (f *fakeAPI) SearchEmployee(ctx context.Context, identifier string) (*hrapi.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if e, ok := f.remoteOnly[identifier]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeAPI) ListValues(ctx context.Context, listName string) ([]hrapi.ListValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lists[listName], nil
}

func (f *fakeAPI) UpdateField(ctx context.Context, recordID string, payload map[string]any) (int, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateCalls[recordID]++

	if f.onUpdate != nil {
		f.onUpdate(recordID)
	}

	if err, ok := f.updateErrs[recordID]; ok {
		return 0, "", err
	}

	code := f.updateCode
	if override, ok := f.updateCodes[recordID]; ok {
		code = override
	}

	if code >= 200 && code < 300 {
		f.written[recordID] = payload
	}

	switch {
	case code >= 200 && code < 300, code == 304:
		return code, "", nil
	case code == 404:
		return code, `{"error":"employee not found"}`, nil
	default:
		return code, fmt.Sprintf(`{"error":"rejected with %d"}`, code), nil
	}
}

func (f *fakeAPI) GetFieldValue(ctx context.Context, recordID, fieldPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.readBacks[recordID]++

	doc, ok := f.written[recordID]
	if !ok {
		return "", fmt.Errorf("record %s never written", recordID)
	}

	current := any(doc)
	for _, seg := range strings.Split(fieldPath, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return "", fmt.Errorf("field %q not present", fieldPath)
		}
		current, ok = obj[seg]
		if !ok {
			return "", fmt.Errorf("field %q not present", fieldPath)
		}
	}
	return fmt.Sprintf("%v", current), nil
}

// memRowStore is an in-memory uploader table.
type memRowStore struct {
	mu   sync.Mutex
	rows []domain.UpdateRow
}

func newMemRowStore(pairs []domain.StagedPair) *memRowStore {
	s := &memRowStore{}
	_ = s.ReplaceRows(context.Background(), pairs)
	return s
}

func (s *memRowStore) ReplaceRows(ctx context.Context, pairs []domain.StagedPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make([]domain.UpdateRow, len(pairs))
	for i, p := range pairs {
		s.rows[i] = domain.UpdateRow{
			RowIndex:   i,
			BusinessID: p.BusinessID,
			RawValue:   p.RawValue,
			Status:     domain.RowStatusPending,
		}
	}
	return nil
}

func (s *memRowStore) CountRows(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows), nil
}

func (s *memRowStore) GetRows(ctx context.Context, from, to int) ([]domain.UpdateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from < 0 {
		from = 0
	}
	if to > len(s.rows) {
		to = len(s.rows)
	}
	return append([]domain.UpdateRow(nil), s.rows[from:to]...), nil
}

func (s *memRowStore) ListRows(ctx context.Context) ([]domain.UpdateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.UpdateRow(nil), s.rows...), nil
}

func (s *memRowStore) ListFailedRows(ctx context.Context) ([]domain.UpdateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var failed []domain.UpdateRow
	for _, r := range s.rows {
		if r.Status == domain.RowStatusFailed {
			failed = append(failed, r)
		}
	}
	return failed, nil
}

func (s *memRowStore) UpdateRow(ctx context.Context, row *domain.UpdateRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row.RowIndex < 0 || row.RowIndex >= len(s.rows) {
		return fmt.Errorf("row %d not found", row.RowIndex)
	}
	s.rows[row.RowIndex] = *row
	return nil
}

func (s *memRowStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, r := range s.rows {
		counts[r.Status]++
	}
	return counts, nil
}

// memCheckpointStore holds at most one checkpoint.
type memCheckpointStore struct {
	mu sync.Mutex
	cp *domain.JobCheckpoint
}

func (s *memCheckpointStore) Create(ctx context.Context, cp *domain.JobCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cp != nil {
		return domain.ErrJobAlreadyActive
	}
	clone := *cp
	s.cp = &clone
	return nil
}

func (s *memCheckpointStore) Get(ctx context.Context) (*domain.JobCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cp == nil {
		return nil, domain.ErrCheckpointNotFound
	}
	clone := *s.cp
	return &clone, nil
}

func (s *memCheckpointStore) Update(ctx context.Context, cp *domain.JobCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cp == nil {
		return domain.ErrCheckpointNotFound
	}
	clone := *cp
	s.cp = &clone
	return nil
}

func (s *memCheckpointStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cp = nil
	return nil
}

// manualTrigger records arm state; tests fire ticks directly through the
// scheduler instead.
type manualTrigger struct {
	mu     sync.Mutex
	armed  bool
	arms   int
	disarm int
}

func (t *manualTrigger) Arm(tick func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
	t.arms++
	return nil
}

func (t *manualTrigger) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	t.disarm++
}

func (t *manualTrigger) isArmed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// stagedPairs builds n pairs addressing the fakeAPI's seeded employees.
func stagedPairs(n int) []domain.StagedPair {
	pairs := make([]domain.StagedPair, n)
	for i := 0; i < n; i++ {
		pairs[i] = domain.StagedPair{
			BusinessID: fmt.Sprintf("EMP-%d", i),
			RawValue:   fmt.Sprintf("value-%d", i),
		}
	}
	return pairs
}

// fastConfig is engine tuning for tests: effectively no pacing delay.
func fastConfig(batchSize int) *Config {
	return &Config{
		BatchSize:         batchSize,
		MaxCallsPerMinute: 600000,
		TickBudget:        30 * time.Second,
	}
}
