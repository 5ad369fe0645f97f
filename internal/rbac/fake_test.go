package rbac

import (
	"context"
	"errors"
	"time"
)

var errBackendDown = errors.New("backend down")

// fakeBackend implements Source and Writer in memory.
type fakeBackend struct {
	roles       map[uint]Role
	assignments map[uint64]Assignment
	items       []MenuItem
	grants      map[uint][]MenuGrant
	appAccess   map[uint64]bool
	nextID      uint

	failReads  bool
	failWrites bool
	serverDeny bool

	checkCalls   int
	replaceCalls int
	revokeCalls  int
	loadCalls    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		roles:       make(map[uint]Role),
		assignments: make(map[uint64]Assignment),
		grants:      make(map[uint][]MenuGrant),
		appAccess:   make(map[uint64]bool),
	}
}

func (f *fakeBackend) addRole(id uint, level int, assign bool) Role {
	r := Role{
		ID:              id,
		ApplicationCode: "CRM",
		Code:            "ROLE_" + string(rune('A'+id)),
		Name:            "Role",
		Level:           level,
		Flags:           NewPermissionFlags(),
		Management:      Management{AssignRoles: assign},
	}
	f.roles[id] = r

	return r
}

func (f *fakeBackend) assign(userID uint64, roleID uint) {
	f.nextID++
	f.assignments[userID] = Assignment{
		ID:              f.nextID,
		UserID:          userID,
		ApplicationCode: "CRM",
		Role:            f.roles[roleID],
		ValidFrom:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.appAccess[userID] = true
}

func (f *fakeBackend) GetActiveRoleAssignment(_ context.Context, actorID uint64, _ string) (*Assignment, error) {
	f.loadCalls++

	if f.failReads {
		return nil, errBackendDown
	}

	a, ok := f.assignments[actorID]
	if !ok {
		return nil, nil
	}

	return &a, nil
}

func (f *fakeBackend) ListMenuItems(_ context.Context, _ string) ([]MenuItem, error) {
	return f.items, nil
}

func (f *fakeBackend) ListRoleMenuGrants(_ context.Context, roleID uint) ([]MenuGrant, error) {
	return f.grants[roleID], nil
}

func (f *fakeBackend) HasApplicationAccess(_ context.Context, actorID uint64, _ string) (bool, error) {
	return f.appAccess[actorID], nil
}

func (f *fakeBackend) GetRole(_ context.Context, roleID uint) (*Role, error) {
	if f.failReads {
		return nil, errBackendDown
	}

	r, ok := f.roles[roleID]
	if !ok {
		return nil, nil
	}

	return &r, nil
}

func (f *fakeBackend) FindAssignment(_ context.Context, actorID uint64, _ string) (*Assignment, error) {
	a, ok := f.assignments[actorID]
	if !ok {
		return nil, nil
	}

	return &a, nil
}

func (f *fakeBackend) CheckCanAssignRole(_ context.Context, assignerID uint64, _ string, level int) (bool, error) {
	f.checkCalls++

	if f.serverDeny {
		return false, nil
	}

	a, ok := f.assignments[assignerID]
	if !ok || !a.Role.CanAssign() {
		return false, nil
	}

	return level <= MaxAssignableLevel(a.Role.Level), nil
}

func (f *fakeBackend) ReplaceAssignment(_ context.Context, a Assignment) (Assignment, error) {
	f.replaceCalls++

	if f.failWrites {
		return Assignment{}, errBackendDown
	}

	f.nextID++
	a.ID = f.nextID
	f.assignments[a.UserID] = a

	return a, nil
}

func (f *fakeBackend) RevokeAssignment(_ context.Context, actorID uint64, _ string) (bool, error) {
	f.revokeCalls++

	if _, ok := f.assignments[actorID]; !ok {
		return false, nil
	}

	delete(f.assignments, actorID)

	return true, nil
}

// mapCache is a Cache backed by a map.
type mapCache map[string][]byte

func (m mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapCache) Set(_ context.Context, key string, value []byte) error {
	m[key] = value
	return nil
}

func (m mapCache) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
