package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/domain/calendar"
	"github.com/rostralabs/rostra/internal/domain/company"
	"github.com/rostralabs/rostra/internal/domain/employee"
	"github.com/rostralabs/rostra/internal/domain/user"
	"github.com/rostralabs/rostra/internal/port/messagequeue"
)

// fakeStore is an in-memory database.Store for service tests.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*user.User
	sessions  map[string]*user.Session
	companies map[string]*company.Company
	employees map[string]*employee.Employee
	events    map[string]*calendar.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]*user.User),
		sessions:  make(map[string]*user.Session),
		companies: make(map[string]*company.Company),
		employees: make(map[string]*employee.Employee),
		events:    make(map[string]*calendar.Event),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return fmt.Errorf("unique constraint: users_email")
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) CreateSession(_ context.Context, s *user.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*user.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) DeleteExpiredSessions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CreateCompany(_ context.Context, c *company.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.companies[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCompany(_ context.Context, id string) (*company.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListCompaniesByOwner(_ context.Context, ownerID string) ([]company.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []company.Company
	for _, c := range f.companies {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateCompany(_ context.Context, c *company.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.companies[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	f.companies[c.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteCompany(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.companies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.companies, id)
	return nil
}

func (f *fakeStore) CreateEmployee(_ context.Context, e *employee.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.employees[e.ID] = &cp
	return nil
}

func (f *fakeStore) GetEmployee(_ context.Context, id string) (*employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) ListEmployeesByCompany(_ context.Context, companyID string) ([]employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []employee.Employee
	for _, e := range f.employees {
		if e.CompanyID == companyID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateEmployee(_ context.Context, e *employee.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.employees[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	f.employees[e.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteEmployee(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.employees[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.employees, id)
	return nil
}

func (f *fakeStore) CreateEvent(_ context.Context, ev *calendar.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ev
	f.events[ev.ID] = &cp
	return nil
}

func (f *fakeStore) GetEvent(_ context.Context, id string) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeStore) ListEventsByCompany(_ context.Context, companyID string) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []calendar.Event
	for _, ev := range f.events {
		if ev.CompanyID == companyID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateEvent(_ context.Context, ev *calendar.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[ev.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *ev
	f.events[ev.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

// fakeQueue records published integration events.
type fakeQueue struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakeQueue) Publish(_ context.Context, subject string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakeQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (f *fakeQueue) Close() error { return nil }

func (f *fakeQueue) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subjects...)
}

// notifyCall records one realtime notification.
type notifyCall struct {
	kind      string
	companyID string
	id        string
}

// fakeNotifier records realtime notifications.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) record(kind, companyID, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{kind: kind, companyID: companyID, id: id})
}

func (f *fakeNotifier) NotifyEventCreated(_ context.Context, companyID, eventID string) {
	f.record("EventCreated", companyID, eventID)
}

func (f *fakeNotifier) NotifyEventUpdated(_ context.Context, companyID, eventID string) {
	f.record("EventUpdated", companyID, eventID)
}

func (f *fakeNotifier) NotifyEventDeleted(_ context.Context, companyID, eventID string) {
	f.record("EventDeleted", companyID, eventID)
}

func (f *fakeNotifier) NotifyEmployeeAdded(_ context.Context, companyID, employeeID string) {
	f.record("EmployeeAdded", companyID, employeeID)
}

func (f *fakeNotifier) NotifyEmployeeRemoved(_ context.Context, companyID, employeeID string) {
	f.record("EmployeeRemoved", companyID, employeeID)
}

func (f *fakeNotifier) NotifyCompanyDataChanged(_ context.Context, companyID, changeType string, _ any) {
	f.record(changeType, companyID, "")
}

func (f *fakeNotifier) recorded() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifyCall(nil), f.calls...)
}

// fakeCache is an in-memory cache.Cache without TTL enforcement.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.entries[key]
	return data, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}
