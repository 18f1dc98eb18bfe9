// Package memstore is an in-process implementation of the store contract.
// Each Store returned by New owns its own maps; nothing is shared between
// instances.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/store"
)

type db struct {
	mu        sync.RWMutex
	now       func() time.Time
	last      time.Time
	users     map[string]models.User
	tickets   map[uuid.UUID]models.Ticket
	fallas    map[uuid.UUID]models.Falla
	approvals map[uuid.UUID]models.ApprovalRequest
	inventory map[uuid.UUID]models.InventoryItem
	audit     []models.AuditLog
}

// New returns an empty in-memory Store.
func New() *store.Store {
	d := &db{
		now:       time.Now,
		users:     make(map[string]models.User),
		tickets:   make(map[uuid.UUID]models.Ticket),
		fallas:    make(map[uuid.UUID]models.Falla),
		approvals: make(map[uuid.UUID]models.ApprovalRequest),
		inventory: make(map[uuid.UUID]models.InventoryItem),
	}
	return &store.Store{
		Users:     &userStore{d},
		Tickets:   &ticketStore{d},
		Fallas:    &fallaStore{d},
		Approvals: &approvalStore{d},
		Inventory: &inventoryStore{d},
		Audit:     &auditStore{d},
	}
}

// stamp sets CreatedAt/UpdatedAt. Timestamps never repeat so newest-first
// listings have a total order, as they do in PostgreSQL in practice.
func (d *db) stamp(created, updated *time.Time) {
	now := d.now()
	if !now.After(d.last) {
		now = d.last.Add(time.Microsecond)
	}
	d.last = now
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// page sorts nothing; it slices an already ordered result.
func page[T any](items []T, p store.Page) []T {
	p = p.Normalize()
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// --- users ---

type userStore struct{ d *db }

func (s *userStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	u, ok := s.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	if u, ok := s.d.findEmail(models.NormalizeEmail(email)); ok {
		return &u, nil
	}
	return nil, store.ErrNotFound
}

func (d *db) findEmail(email string) (models.User, bool) {
	for _, u := range d.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *userStore) List(_ context.Context) ([]models.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	users := make([]models.User, 0, len(s.d.users))
	for _, u := range s.d.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *userStore) Create(_ context.Context, user *models.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	user.Email = models.NormalizeEmail(user.Email)
	if _, exists := s.d.users[user.ID]; exists {
		return errDuplicate("users.id", user.ID)
	}
	if _, exists := s.d.findEmail(user.Email); exists {
		return errDuplicate("users.email", user.Email)
	}
	s.d.stamp(&user.CreatedAt, &user.UpdatedAt)
	s.d.users[user.ID] = *user
	return nil
}

func (s *userStore) Update(_ context.Context, user *models.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	user.Email = models.NormalizeEmail(user.Email)
	if other, exists := s.d.findEmail(user.Email); exists && other.ID != user.ID {
		return errDuplicate("users.email", user.Email)
	}
	s.d.stamp(&user.CreatedAt, &user.UpdatedAt)
	s.d.users[user.ID] = *user
	return nil
}

func (s *userStore) ChangeID(_ context.Context, oldID, newID string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	u, ok := s.d.users[oldID]
	if !ok {
		return store.ErrNotFound
	}
	if _, taken := s.d.users[newID]; taken {
		return errDuplicate("users.id", newID)
	}
	delete(s.d.users, oldID)
	u.ID = newID
	s.d.users[newID] = u
	return nil
}

func (s *userStore) UpsertByEmail(_ context.Context, user *models.User) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	user.Email = models.NormalizeEmail(user.Email)
	existing, ok := s.d.findEmail(user.Email)
	if !ok {
		s.d.stamp(&user.CreatedAt, &user.UpdatedAt)
		s.d.users[user.ID] = *user
		return true, nil
	}
	existing.Name = user.Name
	existing.Role = user.Role
	existing.Department = user.Department
	s.d.stamp(&existing.CreatedAt, &existing.UpdatedAt)
	s.d.users[existing.ID] = existing
	*user = existing
	return false, nil
}

// --- tickets ---

type ticketStore struct{ d *db }

func cloneTicket(t models.Ticket) models.Ticket {
	t.Comments = cloneSlice(t.Comments)
	t.Attachments = cloneSlice(t.Attachments)
	return t
}

func (s *ticketStore) Find(_ context.Context, f store.TicketFilter) ([]models.Ticket, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var out []models.Ticket
	for _, t := range s.d.tickets {
		if f.Matches(&t) {
			out = append(out, cloneTicket(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Page), int64(len(out)), nil
}

func (s *ticketStore) FindByID(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	t, ok := s.d.tickets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	t = cloneTicket(t)
	return &t, nil
}

func (s *ticketStore) Create(_ context.Context, t *models.Ticket) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if _, exists := s.d.tickets[t.ID]; exists {
		return errDuplicate("tickets.id", t.ID.String())
	}
	for _, other := range s.d.tickets {
		if t.DisplayID != "" && other.DisplayID == t.DisplayID {
			return errDuplicate("tickets.display_id", t.DisplayID)
		}
	}
	s.d.stamp(&t.CreatedAt, &t.UpdatedAt)
	s.d.tickets[t.ID] = cloneTicket(*t)
	return nil
}

func (s *ticketStore) Update(_ context.Context, t *models.Ticket) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.stamp(&t.CreatedAt, &t.UpdatedAt)
	s.d.tickets[t.ID] = cloneTicket(*t)
	return nil
}

// --- fallas ---

type fallaStore struct{ d *db }

func cloneFalla(f models.Falla) models.Falla {
	f.Adjuntos = cloneSlice(f.Adjuntos)
	if f.AsignadoAID != nil {
		id := *f.AsignadoAID
		f.AsignadoAID = &id
	}
	return f
}

func (s *fallaStore) Find(_ context.Context, f store.FallaFilter) ([]models.Falla, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var out []models.Falla
	for _, x := range s.d.fallas {
		if f.Matches(&x) {
			out = append(out, cloneFalla(x))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Page), int64(len(out)), nil
}

func (s *fallaStore) FindByID(_ context.Context, id uuid.UUID) (*models.Falla, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	x, ok := s.d.fallas[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	x = cloneFalla(x)
	return &x, nil
}

func (s *fallaStore) Create(_ context.Context, x *models.Falla) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if x.ID == uuid.Nil {
		x.ID = uuid.New()
	}
	if _, exists := s.d.fallas[x.ID]; exists {
		return errDuplicate("fallas.id", x.ID.String())
	}
	s.d.stamp(&x.CreatedAt, &x.UpdatedAt)
	s.d.fallas[x.ID] = cloneFalla(*x)
	return nil
}

func (s *fallaStore) Update(_ context.Context, x *models.Falla) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.stamp(&x.CreatedAt, &x.UpdatedAt)
	s.d.fallas[x.ID] = cloneFalla(*x)
	return nil
}

// --- approvals ---

type approvalStore struct{ d *db }

func (s *approvalStore) Find(_ context.Context, f store.ApprovalFilter) ([]models.ApprovalRequest, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var out []models.ApprovalRequest
	for _, r := range s.d.approvals {
		if f.Matches(&r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Page), int64(len(out)), nil
}

func (s *approvalStore) FindByID(_ context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	r, ok := s.d.approvals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *approvalStore) Create(_ context.Context, r *models.ApprovalRequest) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, exists := s.d.approvals[r.ID]; exists {
		return errDuplicate("approval_requests.id", r.ID.String())
	}
	for _, other := range s.d.approvals {
		if r.DisplayID != "" && other.DisplayID == r.DisplayID {
			return errDuplicate("approval_requests.display_id", r.DisplayID)
		}
	}
	s.d.stamp(&r.CreatedAt, &r.UpdatedAt)
	s.d.approvals[r.ID] = *r
	return nil
}

func (s *approvalStore) Update(_ context.Context, r *models.ApprovalRequest) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.stamp(&r.CreatedAt, &r.UpdatedAt)
	s.d.approvals[r.ID] = *r
	return nil
}

// --- inventory ---

type inventoryStore struct{ d *db }

func (s *inventoryStore) Find(_ context.Context, f store.InventoryFilter) ([]models.InventoryItem, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var out []models.InventoryItem
	for _, i := range s.d.inventory {
		if f.Matches(&i) {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Nombre < out[b].Nombre })
	return page(out, f.Page), int64(len(out)), nil
}

func (s *inventoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	i, ok := s.d.inventory[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &i, nil
}

func (s *inventoryStore) Create(_ context.Context, i *models.InventoryItem) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	s.d.stamp(&i.CreatedAt, &i.UpdatedAt)
	s.d.inventory[i.ID] = *i
	return nil
}

func (s *inventoryStore) Update(_ context.Context, i *models.InventoryItem) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.stamp(&i.CreatedAt, &i.UpdatedAt)
	s.d.inventory[i.ID] = *i
	return nil
}

func (s *inventoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.inventory[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.d.inventory, id)
	return nil
}

// --- audit ---

type auditStore struct{ d *db }

func (s *auditStore) Append(_ context.Context, e *models.AuditLog) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.d.audit = append(s.d.audit, *e)
	return nil
}

func (s *auditStore) List(_ context.Context, f store.AuditFilter) ([]models.AuditLog, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var out []models.AuditLog
	for _, e := range s.d.audit {
		if f.Matches(&e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return page(out, f.Page), int64(len(out)), nil
}
