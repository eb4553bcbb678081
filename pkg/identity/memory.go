package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidToken is returned by MemoryProvider for unknown tokens.
var ErrInvalidToken = errors.New("invalid id token")

// MemoryProvider keeps identities in process. Tokens are registered with
// IssueToken; it backs local runs and tests.
type MemoryProvider struct {
	mu     sync.Mutex
	users  map[string]*UserRecord
	tokens map[string]string
	seq    int
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		users:  make(map[string]*UserRecord),
		tokens: make(map[string]string),
	}
}

func (m *MemoryProvider) Add(u *UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.UID] = &cp
}

func (m *MemoryProvider) IssueToken(token, uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = uid
}

func (m *MemoryProvider) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, req.Email) {
			return nil, fmt.Errorf("email %s already exists", req.Email)
		}
	}

	uid := req.UID
	if uid == "" {
		m.seq++
		uid = "uid-" + strconv.Itoa(m.seq)
	}
	if _, exists := m.users[uid]; exists {
		return nil, fmt.Errorf("uid %s already exists", uid)
	}

	u := &UserRecord{UID: uid, Email: req.Email, DisplayName: req.DisplayName}
	m.users[u.UID] = u
	cp := *u
	return &cp, nil
}

func (m *MemoryProvider) SetAdmin(ctx context.Context, uid string, admin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[uid]
	if !ok {
		return ErrUserNotFound
	}
	u.Admin = admin
	return nil
}

func (m *MemoryProvider) GetUser(ctx context.Context, uid string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryProvider) DeleteUser(ctx context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[uid]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, uid)
	return nil
}

// ListUsers pages through identities ordered by uid. The page token is the
// last uid of the previous page.
func (m *MemoryProvider) ListUsers(ctx context.Context, pageSize int, pageToken string) (*UserPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uids := make([]string, 0, len(m.users))
	for uid := range m.users {
		if uid > pageToken {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)

	page := &UserPage{}
	for i, uid := range uids {
		if pageSize > 0 && i == pageSize {
			page.NextPageToken = uids[i-1]
			break
		}
		cp := *m.users[uid]
		page.Users = append(page.Users, &cp)
	}
	return page, nil
}

func (m *MemoryProvider) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uid, ok := m.tokens[idToken]
	if !ok {
		return nil, ErrInvalidToken
	}
	u, ok := m.users[uid]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &Token{UID: u.UID, Email: u.Email, Admin: u.Admin}, nil
}
