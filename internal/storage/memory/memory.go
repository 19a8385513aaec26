package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every record in process memory. It mirrors the Postgres store's
// constraints: unique emails, unique (owner, name, type) for custom categories,
// cascading user deletes and set-null on category delete.
type Store struct {
	mu           sync.RWMutex
	users        map[int64]models.User
	categories   map[int64]models.Category
	transactions map[int64]models.Transaction
	seq          struct{ user, category, transaction int64 }
	now          func() time.Time
}

// New returns a store seeded with the system categories.
func New() *Store {
	s := &Store{
		users:        map[int64]models.User{},
		categories:   map[int64]models.Category{},
		transactions: map[int64]models.Transaction{},
		now:          time.Now,
	}
	for _, c := range storage.SystemCategories() {
		s.seq.category++
		c.ID = s.seq.category
		c.CreatedAt = s.now()
		s.categories[c.ID] = c
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// Users.

func (s *Store) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, 0) {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.seq.user++
	u.ID = s.seq.user
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, page storage.Page) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page.Normalize(storage.DefaultLimit)), nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, c storage.UserChanges) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if c.IsEmpty() {
		return u, nil
	}
	if c.Email != nil {
		if s.emailTaken(*c.Email, id) {
			return models.User{}, storage.ErrAlreadyExists
		}
		u.Email = *c.Email
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.FullName.Set {
		u.FullName = c.FullName.Ptr()
	}
	if c.IsActive != nil {
		u.IsActive = *c.IsActive
	}
	if c.IsSuperuser != nil {
		u.IsSuperuser = *c.IsSuperuser
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	for tid, t := range s.transactions {
		if t.UserID == id {
			delete(s.transactions, tid)
		}
	}
	for cid, c := range s.categories {
		if c.OwnedBy(id) {
			s.deleteCategoryLocked(cid)
		}
	}
	return nil
}

func (s *Store) emailTaken(email string, except int64) bool {
	for _, u := range s.users {
		if u.ID != except && u.Email == email {
			return true
		}
	}
	return false
}

// Categories.

func (s *Store) CreateCategory(_ context.Context, c models.Category) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryTaken(c.UserID, c.Name, c.Type, 0) {
		return models.Category{}, storage.ErrAlreadyExists
	}
	s.seq.category++
	c.ID = s.seq.category
	c.CreatedAt = s.now()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) CategoryByID(_ context.Context, id int64) (models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return models.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) VisibleCategories(_ context.Context, userID int64, t *models.CategoryType, page storage.Page) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Category{}
	for _, c := range s.categories {
		if c.VisibleTo(userID) && (t == nil || c.Type == *t) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page.Normalize(storage.DefaultLimit)), nil
}

func (s *Store) CategoryByName(_ context.Context, userID int64, name string, t models.CategoryType) (models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Category
	for _, c := range s.categories {
		if !c.VisibleTo(userID) || c.Name != name || c.Type != t {
			continue
		}
		// Prefer the user's own category, then the lowest id.
		if found == nil || (found.IsSystem && !c.IsSystem) || (found.IsSystem == c.IsSystem && c.ID < found.ID) {
			c := c
			found = &c
		}
	}
	if found == nil {
		return models.Category{}, storage.ErrNotFound
	}
	return *found, nil
}

func (s *Store) UpdateCategory(_ context.Context, id int64, ch storage.CategoryChanges) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return models.Category{}, storage.ErrNotFound
	}
	if ch.IsEmpty() {
		return c, nil
	}
	if ch.Name != nil {
		c.Name = *ch.Name
	}
	if ch.Type != nil {
		c.Type = *ch.Type
	}
	if ch.Color != nil {
		c.Color = *ch.Color
	}
	if ch.Icon.Set {
		c.Icon = ch.Icon.Ptr()
	}
	if s.categoryTaken(c.UserID, c.Name, c.Type, id) {
		return models.Category{}, storage.ErrAlreadyExists
	}
	s.categories[id] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return storage.ErrNotFound
	}
	s.deleteCategoryLocked(id)
	return nil
}

func (s *Store) CategoryIDsMatching(_ context.Context, m storage.CategoryMatch) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(m.NameContains)
	ids := []int64{}
	for _, c := range s.categories {
		if c.Type == m.Type && strings.Contains(strings.ToLower(c.Name), needle) {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// categoryTaken applies the (user_id, name, type) unique constraint. Rows with
// no owner never collide, matching Postgres NULL semantics.
func (s *Store) categoryTaken(owner *int64, name string, t models.CategoryType, except int64) bool {
	if owner == nil {
		return false
	}
	for _, c := range s.categories {
		if c.ID != except && c.OwnedBy(*owner) && c.Name == name && c.Type == t {
			return true
		}
	}
	return false
}

func (s *Store) deleteCategoryLocked(id int64) {
	delete(s.categories, id)
	for tid, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			s.transactions[tid] = t
		}
	}
}

// Transactions.

func (s *Store) CreateTransaction(_ context.Context, t models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.CategoryID != nil {
		if err := s.checkCategoryLocked(*t.CategoryID, t.UserID); err != nil {
			return models.Transaction{}, err
		}
	}
	s.seq.transaction++
	t.ID = s.seq.transaction
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) TransactionByID(_ context.Context, id int64) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, f storage.TransactionFilter) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Transaction{}
	for _, t := range s.transactions {
		if t.UserID != f.UserID {
			continue
		}
		if f.Type != nil && t.Type != *f.Type {
			continue
		}
		if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
			continue
		}
		if f.From != nil && t.TransactionDate.Before(*f.From) {
			continue
		}
		if f.To != nil && t.TransactionDate.After(*f.To) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.After(out[j].TransactionDate)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, f.Page.Normalize(storage.DefaultLimit)), nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, c storage.TransactionChanges) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, storage.ErrNotFound
	}
	if c.IsEmpty() {
		return t, nil
	}
	if c.CategoryID.HasValue() {
		if err := s.checkCategoryLocked(c.CategoryID.Value, t.UserID); err != nil {
			return models.Transaction{}, err
		}
	}
	if c.Type != nil {
		t.Type = *c.Type
	}
	if c.Amount != nil {
		t.Amount = *c.Amount
	}
	if c.Description.Set {
		t.Description = c.Description.Ptr()
	}
	if c.TransactionDate != nil {
		t.TransactionDate = *c.TransactionDate
	}
	if c.CategoryID.Set {
		t.CategoryID = c.CategoryID.Ptr()
	}
	t.UpdatedAt = s.now()
	s.transactions[id] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) checkCategoryLocked(categoryID, owner int64) error {
	c, ok := s.categories[categoryID]
	if !ok {
		return storage.ErrCategoryNotFound
	}
	if !c.VisibleTo(owner) {
		return storage.ErrCategoryForbidden
	}
	return nil
}

// Aggregates.

func (s *Store) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	income, err := s.TotalByType(ctx, userID, models.TransactionIncome)
	if err != nil {
		return decimal.Zero, err
	}
	expenses, err := s.TotalByType(ctx, userID, models.TransactionExpense)
	if err != nil {
		return decimal.Zero, err
	}
	return income.Sub(expenses), nil
}

func (s *Store) TotalByType(ctx context.Context, userID int64, t models.TransactionType) (decimal.Decimal, error) {
	totals, err := s.Totals(ctx, storage.AggregateFilter{UserID: userID, Type: &t})
	return totals.Sum, err
}

func (s *Store) Totals(_ context.Context, f storage.AggregateFilter) (models.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := models.Totals{Sum: decimal.Zero}
	for _, t := range s.transactions {
		if matches(t, f) {
			totals.Sum = totals.Sum.Add(t.Amount)
			totals.Count++
		}
	}
	return totals, nil
}

func (s *Store) CategoryTotals(_ context.Context, f storage.AggregateFilter) ([]models.CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := map[int64]*models.CategoryTotal{}
	for _, t := range s.transactions {
		if t.CategoryID == nil || !matches(t, f) {
			continue
		}
		c, ok := s.categories[*t.CategoryID]
		if !ok {
			continue
		}
		row, ok := byID[c.ID]
		if !ok {
			row = &models.CategoryTotal{CategoryID: c.ID, Name: c.Name, Type: c.Type, Color: c.Color, Icon: c.Icon, Totals: models.Totals{Sum: decimal.Zero}}
			byID[c.ID] = row
		}
		row.Sum = row.Sum.Add(t.Amount)
		row.Count++
	}
	out := make([]models.CategoryTotal, 0, len(byID))
	for _, row := range byID {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Sum.Cmp(out[j].Sum); cmp != 0 {
			return cmp > 0
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func matches(t models.Transaction, f storage.AggregateFilter) bool {
	if t.UserID != f.UserID {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.CategoryIDs != nil {
		if t.CategoryID == nil || !slices.Contains(f.CategoryIDs, *t.CategoryID) {
			return false
		}
	}
	if f.From != nil && t.TransactionDate.Before(*f.From) {
		return false
	}
	if f.To != nil && t.TransactionDate.After(*f.To) {
		return false
	}
	if f.Before != nil && !t.TransactionDate.Before(*f.Before) {
		return false
	}
	return true
}

func paginate[T any](items []T, page storage.Page) []T {
	if page.Skip >= len(items) {
		return []T{}
	}
	end := min(page.Skip+page.Limit, len(items))
	return items[page.Skip:end]
}
