package app

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/secondary"
)

// ============================================================================
// Callers
// ============================================================================

var (
	testAdmin   = authz.Caller{UserID: 1, Email: "admin@mes.com", Name: "Admin", Role: models.RoleAdmin}
	testManager = authz.Caller{UserID: 2, Email: "manager@mes.com", Name: "Manager", Role: models.RoleManager}
	testWorker  = authz.Caller{UserID: 3, Email: "worker@mes.com", Name: "Worker", Role: models.RoleWorker}
	testOther   = authz.Caller{UserID: 4, Email: "other@mes.com", Name: "Other", Role: models.RoleWorker}
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func capFor(caller authz.Caller, op authz.Operation) authz.Capability {
	return authz.MustAuthorize(caller, op)
}

func assertKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s: %v", want, got, err)
	}
}

func intPtr(v int) *int { return &v }

// ============================================================================
// mockWorkOrderRepository
// ============================================================================

var _ secondary.WorkOrderRepository = (*mockWorkOrderRepository)(nil)

// mockWorkOrderRepository stores copies so callers cannot mutate state
// without going through Update.
type mockWorkOrderRepository struct {
	mu        sync.Mutex
	orders    map[int64]*secondary.WorkOrderRecord
	nextID    int64
	createErr error
	updateErr error
	listErr   error
	lastList  secondary.WorkOrderFilters
}

func newMockWorkOrderRepository() *mockWorkOrderRepository {
	return &mockWorkOrderRepository{orders: make(map[int64]*secondary.WorkOrderRecord)}
}

func (m *mockWorkOrderRepository) seed(r *secondary.WorkOrderRecord) *secondary.WorkOrderRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		m.nextID++
		r.ID = m.nextID
	} else if r.ID > m.nextID {
		m.nextID = r.ID
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = testNow
	}
	cp := *r
	m.orders[r.ID] = &cp
	return r
}

func (m *mockWorkOrderRepository) Create(ctx context.Context, wo *secondary.WorkOrderRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	wo.ID = m.nextID
	wo.Version = 0
	cp := *wo
	m.orders[wo.ID] = &cp
	return nil
}

func (m *mockWorkOrderRepository) GetByID(ctx context.Context, id int64) (*secondary.WorkOrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wo, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("WorkOrder", id)
	}
	cp := *wo
	return &cp, nil
}

func (m *mockWorkOrderRepository) List(ctx context.Context, filters secondary.WorkOrderFilters) ([]*secondary.WorkOrderRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = filters
	var result []*secondary.WorkOrderRecord
	for _, wo := range m.orders {
		if filters.Status != "" && wo.Status != filters.Status {
			continue
		}
		if filters.AssignedToID != 0 && wo.AssignedToID != filters.AssignedToID {
			continue
		}
		if filters.CreatedFrom != nil && wo.CreatedAt.Before(*filters.CreatedFrom) {
			continue
		}
		if filters.CreatedTo != nil && wo.CreatedAt.After(*filters.CreatedTo) {
			continue
		}
		cp := *wo
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockWorkOrderRepository) Update(ctx context.Context, wo *secondary.WorkOrderRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.orders[wo.ID]
	if !ok {
		return apperr.NotFound("WorkOrder", wo.ID)
	}
	if existing.Version != wo.Version {
		return apperr.Conflict("Work order %d was modified concurrently", wo.ID)
	}
	wo.Version++
	cp := *wo
	m.orders[wo.ID] = &cp
	return nil
}

func (m *mockWorkOrderRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *mockWorkOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wo := range m.orders {
		if wo.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWorkOrderRepository) Exists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.orders[id]
	return ok, nil
}

// ============================================================================
// mockIssueRepository
// ============================================================================

var _ secondary.IssueRepository = (*mockIssueRepository)(nil)

type mockIssueRepository struct {
	issues    map[int64]*secondary.IssueRecord
	nextID    int64
	updateErr error
}

func newMockIssueRepository() *mockIssueRepository {
	return &mockIssueRepository{issues: make(map[int64]*secondary.IssueRecord)}
}

func (m *mockIssueRepository) seed(r *secondary.IssueRecord) *secondary.IssueRecord {
	if r.ID == 0 {
		m.nextID++
		r.ID = m.nextID
	} else if r.ID > m.nextID {
		m.nextID = r.ID
	}
	cp := *r
	m.issues[r.ID] = &cp
	return r
}

func (m *mockIssueRepository) Create(ctx context.Context, issue *secondary.IssueRecord) error {
	m.nextID++
	issue.ID = m.nextID
	issue.Version = 0
	cp := *issue
	m.issues[issue.ID] = &cp
	return nil
}

func (m *mockIssueRepository) GetByID(ctx context.Context, id int64) (*secondary.IssueRecord, error) {
	issue, ok := m.issues[id]
	if !ok {
		return nil, apperr.NotFound("Issue", id)
	}
	cp := *issue
	return &cp, nil
}

func (m *mockIssueRepository) List(ctx context.Context, filters secondary.IssueFilters) ([]*secondary.IssueRecord, error) {
	var result []*secondary.IssueRecord
	for _, issue := range m.issues {
		if filters.WorkOrderID != 0 && issue.WorkOrderID != filters.WorkOrderID {
			continue
		}
		if filters.Status != "" && issue.Status != filters.Status {
			continue
		}
		if filters.Priority != "" && issue.Priority != filters.Priority {
			continue
		}
		if filters.ReporterID != 0 && issue.ReporterID != filters.ReporterID {
			continue
		}
		cp := *issue
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockIssueRepository) Update(ctx context.Context, issue *secondary.IssueRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	existing, ok := m.issues[issue.ID]
	if !ok {
		return apperr.NotFound("Issue", issue.ID)
	}
	if existing.Version != issue.Version {
		return apperr.Conflict("Issue %d was modified concurrently", issue.ID)
	}
	issue.Version++
	cp := *issue
	m.issues[issue.ID] = &cp
	return nil
}

func (m *mockIssueRepository) Delete(ctx context.Context, id int64) error {
	delete(m.issues, id)
	return nil
}

// ============================================================================
// mockWorkLogRepository
// ============================================================================

var _ secondary.WorkLogRepository = (*mockWorkLogRepository)(nil)

type mockWorkLogRepository struct {
	logs      map[int64]*secondary.WorkLogRecord
	nextID    int64
	createErr error
	lastList  secondary.WorkLogFilters
}

func newMockWorkLogRepository() *mockWorkLogRepository {
	return &mockWorkLogRepository{logs: make(map[int64]*secondary.WorkLogRecord)}
}

func (m *mockWorkLogRepository) seed(r *secondary.WorkLogRecord) *secondary.WorkLogRecord {
	if r.ID == 0 {
		m.nextID++
		r.ID = m.nextID
	}
	cp := *r
	m.logs[r.ID] = &cp
	return r
}

func (m *mockWorkLogRepository) Create(ctx context.Context, log *secondary.WorkLogRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	log.ID = m.nextID
	cp := *log
	m.logs[log.ID] = &cp
	return nil
}

func (m *mockWorkLogRepository) GetByID(ctx context.Context, id int64) (*secondary.WorkLogRecord, error) {
	log, ok := m.logs[id]
	if !ok {
		return nil, apperr.NotFound("WorkLog", id)
	}
	cp := *log
	return &cp, nil
}

func (m *mockWorkLogRepository) List(ctx context.Context, filters secondary.WorkLogFilters) ([]*secondary.WorkLogRecord, error) {
	m.lastList = filters
	var result []*secondary.WorkLogRecord
	for _, log := range m.logs {
		if filters.WorkOrderID != 0 && log.WorkOrderID != filters.WorkOrderID {
			continue
		}
		if filters.WorkerID != 0 && log.WorkerID != filters.WorkerID {
			continue
		}
		if filters.Action != "" && log.Action != filters.Action {
			continue
		}
		cp := *log
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

// ============================================================================
// mockUserRepository
// ============================================================================

var _ secondary.UserRepository = (*mockUserRepository)(nil)

type mockUserRepository struct {
	users     map[int64]*secondary.UserRecord
	nextID    int64
	updates   int
	updateErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*secondary.UserRecord)}
}

// seedCallers stores an active account for each of the test callers.
func (m *mockUserRepository) seedCallers(hash string) {
	for _, c := range []authz.Caller{testAdmin, testManager, testWorker, testOther} {
		m.seed(&secondary.UserRecord{
			ID:           c.UserID,
			Email:        c.Email,
			Name:         c.Name,
			PasswordHash: hash,
			Role:         string(c.Role),
			Active:       true,
		})
	}
}

func (m *mockUserRepository) seed(r *secondary.UserRecord) *secondary.UserRecord {
	if r.ID == 0 {
		m.nextID++
		r.ID = m.nextID
	} else if r.ID > m.nextID {
		m.nextID = r.ID
	}
	cp := *r
	m.users[r.ID] = &cp
	return r
}

func (m *mockUserRepository) Create(ctx context.Context, user *secondary.UserRecord) error {
	m.nextID++
	user.ID = m.nextID
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*secondary.UserRecord, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("User", id)
	}
	cp := *user
	return &cp, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*secondary.UserRecord, error) {
	for _, user := range m.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundBy("User", "email", email)
}

func (m *mockUserRepository) List(ctx context.Context) ([]*secondary.UserRecord, error) {
	var result []*secondary.UserRecord
	for _, user := range m.users {
		cp := *user
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockUserRepository) Update(ctx context.Context, id int64, changes secondary.UserChanges) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.users[id]
	if !ok {
		return apperr.NotFound("User", id)
	}
	m.updates++
	if changes.Name != nil {
		user.Name = *changes.Name
	}
	if changes.Role != nil {
		user.Role = *changes.Role
	}
	if changes.Active != nil {
		user.Active = *changes.Active
	}
	if changes.PasswordHash != nil {
		user.PasswordHash = *changes.PasswordHash
	}
	user.UpdatedAt = changes.UpdatedAt
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, user := range m.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

// ============================================================================
// Security mocks
// ============================================================================

var _ secondary.PasswordHasher = mockHasher{}

// mockHasher "hashes" by prefixing, so tests can assert on stored values.
type mockHasher struct{}

func (mockHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (mockHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

var _ secondary.TokenIssuer = (*mockTokenIssuer)(nil)

// mockTokenIssuer encodes tokens as keys into its own table.
type mockTokenIssuer struct {
	seq     int
	tokens  map[string]mockToken
	ttl     time.Duration
	refresh time.Duration
}

type mockToken struct {
	subject secondary.TokenSubject
	jti     string
	refresh bool
}

func newMockTokenIssuer() *mockTokenIssuer {
	return &mockTokenIssuer{
		tokens:  make(map[string]mockToken),
		ttl:     time.Hour,
		refresh: 24 * time.Hour,
	}
}

func (m *mockTokenIssuer) issue(subject secondary.TokenSubject, refresh bool, ttl time.Duration) secondary.IssuedToken {
	m.seq++
	jti := "jti-" + strconv.Itoa(m.seq)
	token := "tok-" + jti
	m.tokens[token] = mockToken{subject: subject, jti: jti, refresh: refresh}
	return secondary.IssuedToken{Token: token, ID: jti, ExpiresAt: testNow.Add(ttl)}
}

func (m *mockTokenIssuer) IssueAccess(subject secondary.TokenSubject) (secondary.IssuedToken, error) {
	return m.issue(subject, false, m.ttl), nil
}

func (m *mockTokenIssuer) IssueRefresh(subject secondary.TokenSubject) (secondary.IssuedToken, error) {
	return m.issue(subject, true, m.refresh), nil
}

func (m *mockTokenIssuer) ParseAccess(token string) (secondary.TokenSubject, error) {
	t, ok := m.tokens[token]
	if !ok || t.refresh {
		return secondary.TokenSubject{}, errors.New("invalid token")
	}
	return t.subject, nil
}

func (m *mockTokenIssuer) ParseRefresh(token string) (secondary.TokenSubject, string, error) {
	t, ok := m.tokens[token]
	if !ok || !t.refresh {
		return secondary.TokenSubject{}, "", errors.New("invalid token")
	}
	return t.subject, t.jti, nil
}

var _ secondary.RefreshTokenStore = (*mockTokenStore)(nil)

type mockTokenStore struct {
	tokens    map[string]int64
	ttls      map[string]time.Duration
	revokeErr error
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{tokens: make(map[string]int64), ttls: make(map[string]time.Duration)}
}

func (m *mockTokenStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	m.tokens[jti] = userID
	m.ttls[jti] = ttl
	return nil
}

func (m *mockTokenStore) Consume(ctx context.Context, jti string) (int64, error) {
	userID, ok := m.tokens[jti]
	if !ok {
		return 0, secondary.ErrTokenNotFound
	}
	delete(m.tokens, jti)
	return userID, nil
}

func (m *mockTokenStore) Revoke(ctx context.Context, jti string) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	delete(m.tokens, jti)
	return nil
}

// ============================================================================
// Event and export mocks
// ============================================================================

var _ secondary.EventPublisher = (*mockPublisher)(nil)

type mockPublisher struct {
	events []secondary.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event secondary.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) types() []string {
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

var _ secondary.SpreadsheetExporter = (*mockExporter)(nil)

type mockExporter struct {
	report *secondary.ProductionReport
}

func (m *mockExporter) ExportProduction(report secondary.ProductionReport) ([]byte, error) {
	m.report = &report
	return []byte("xlsx"), nil
}
