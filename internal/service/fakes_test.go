package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/credential"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/mailer"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- AccountBackend ---

type fakeBackend struct {
	mu sync.Mutex

	username      string
	usernameErr   error
	resetErr      error
	readUsername  string
	readErr       error
	resetPlayers  map[string]string
	resetStaff    map[string]string
	usernameCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{resetPlayers: map[string]string{}, resetStaff: map[string]string{}}
}

func (b *fakeBackend) GeneratePlayerUsername(context.Context, string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.usernameCalls++
	return b.username, b.usernameErr
}

func (b *fakeBackend) ResetPlayerPassword(_ context.Context, id, hash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resetErr != nil {
		return b.resetErr
	}
	b.resetPlayers[id] = hash
	return nil
}

func (b *fakeBackend) ResetStaffPassword(_ context.Context, id, hash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resetErr != nil {
		return b.resetErr
	}
	b.resetStaff[id] = hash
	return nil
}

func (b *fakeBackend) PlayerUsername(context.Context, string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readUsername, b.readErr
}

// --- Policy / Hasher ---

type fixedPolicy struct {
	password string
	err      error
}

func (p *fixedPolicy) Name() string { return "fixed" }

func (p *fixedPolicy) Generate(context.Context, string) (string, error) {
	return p.password, p.err
}

// plainHasher — «хэш» с префиксом, чтобы тесты видели, что хранится не plaintext.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("пустой пароль")
	}
	return "hashed:" + password, nil
}

func (plainHasher) Verify(hash, password string) bool {
	return hash == "hashed:"+password
}

func newGenerator(backend AccountBackend, policy credential.Policy) *CredentialGenerator {
	return NewCredentialGenerator(backend, policy, plainHasher{}, testLogger())
}

// --- Dispatcher / Clipboard ---

type fakeDispatcher struct {
	mu    sync.Mutex
	err   error
	sent  []*mailer.Message
	block chan struct{}
}

func (d *fakeDispatcher) Send(_ context.Context, msg *mailer.Message) error {
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return d.err
}

type fakeClipboard struct {
	mu   sync.Mutex
	err  error
	last string
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.last = text
	return nil
}

func (c *fakeClipboard) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// --- StaffPermissionLookup ---

type fakeLookup struct {
	mu    sync.Mutex
	rows  map[string]*model.StaffWithPermissions
	err   error
	calls int
	block chan struct{}
	// entered получает сигнал перед ожиданием block
	entered chan struct{}
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{rows: map[string]*model.StaffWithPermissions{}}
}

func (l *fakeLookup) FindByUserID(_ context.Context, userID string) (*model.StaffWithPermissions, error) {
	if l.block != nil {
		if l.entered != nil {
			l.entered <- struct{}{}
		}
		<-l.block
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	row, ok := l.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return row, nil
}

func (l *fakeLookup) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *fakeLookup) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// --- Репозитории ---

type fakeClubs struct {
	byOwner map[string]*model.Club
}

func (c *fakeClubs) Create(context.Context, *model.Club) error { return nil }

func (c *fakeClubs) GetByID(_ context.Context, id string) (*model.Club, error) {
	for _, club := range c.byOwner {
		if club.ID == id {
			return club, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (c *fakeClubs) FindForUser(_ context.Context, userID string) (*model.Club, error) {
	if club, ok := c.byOwner[userID]; ok {
		return club, nil
	}
	return nil, repository.ErrNotFound
}

type fakePlayers struct {
	mu        sync.Mutex
	items     map[string]*model.Player
	createErr error
}

func newFakePlayers() *fakePlayers {
	return &fakePlayers{items: map[string]*model.Player{}}
}

func (r *fakePlayers) Create(_ context.Context, p *model.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakePlayers) GetByID(_ context.Context, clubID, id string) (*model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.ClubID != clubID {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlayers) Username(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return p.Username, nil
}

func (r *fakePlayers) List(_ context.Context, clubID string, _, _ int) ([]*model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Player
	for _, p := range r.items {
		if p.ClubID == clubID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlayers) Count(ctx context.Context, clubID string) (int, error) {
	list, _ := r.List(ctx, clubID, 0, 0)
	return len(list), nil
}

func (r *fakePlayers) Delete(_ context.Context, clubID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.ClubID != clubID {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeStaff struct {
	mu        sync.Mutex
	items     map[string]*model.StaffMember
	perms     map[string]*model.StaffPermissions
	createErr error
}

func newFakeStaff() *fakeStaff {
	return &fakeStaff{items: map[string]*model.StaffMember{}, perms: map[string]*model.StaffPermissions{}}
}

func (r *fakeStaff) Create(_ context.Context, s *model.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.items[s.ID] = &cp
	return nil
}

func (r *fakeStaff) CreateWithPermissions(ctx context.Context, s *model.StaffMember, sp *model.StaffPermissions) error {
	if r.createErr != nil {
		return r.createErr
	}
	if err := r.Create(ctx, s); err != nil {
		return err
	}
	sp.StaffID = s.ID
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sp
	r.perms[s.ID] = &cp
	return nil
}

func (r *fakeStaff) GetByID(_ context.Context, clubID, id string) (*model.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok || s.ClubID != clubID {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStaff) List(_ context.Context, clubID string, _, _ int) ([]*model.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.StaffMember
	for _, s := range r.items {
		if s.ClubID == clubID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStaff) Count(ctx context.Context, clubID string) (int, error) {
	list, _ := r.List(ctx, clubID, 0, 0)
	return len(list), nil
}

func (r *fakeStaff) Delete(_ context.Context, clubID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok || s.ClubID != clubID {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	delete(r.perms, id)
	return nil
}

// fakeStaffPerms — StaffPermissionRepository поверх того же хранилища,
// что и fakeStaff: Create у двух интерфейсов принимает разные типы.
type fakeStaffPerms struct {
	*fakeStaff
}

func (r fakeStaffPerms) Create(_ context.Context, sp *model.StaffPermissions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sp
	cp.Flags = sp.Flags.Clone()
	r.perms[sp.StaffID] = &cp
	return nil
}

func (r *fakeStaff) GetByStaffID(_ context.Context, staffID string) (*model.StaffPermissions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.perms[staffID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sp
	cp.Flags = sp.Flags.Clone()
	return &cp, nil
}

func (r *fakeStaff) Update(_ context.Context, sp *model.StaffPermissions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.perms[sp.StaffID]; !ok {
		return repository.ErrNotFound
	}
	cp := *sp
	r.perms[sp.StaffID] = &cp
	return nil
}

func (r *fakeStaff) FindByUserID(context.Context, string) (*model.StaffWithPermissions, error) {
	return nil, repository.ErrNotFound
}

var (
	_ repository.ClubRepository            = (*fakeClubs)(nil)
	_ repository.PlayerRepository          = (*fakePlayers)(nil)
	_ repository.StaffRepository           = (*fakeStaff)(nil)
	_ repository.StaffPermissionRepository = fakeStaffPerms{}
)
