package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/logging"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/models/dto"
	"github.com/hongminglow/rideledger/internal/storage"
)

const defaultCategoryLimit = 100

var errCategoryExists = apperr.Conflict("category with this name and type already exists")

// CategoryService manages custom categories and guards the system ones.
type CategoryService struct {
	store storage.CategoryStore
	log   *logging.Logger
}

func NewCategoryService(store storage.CategoryStore, log *logging.Logger) *CategoryService {
	return &CategoryService{store: store, log: log.WithComponent(logging.ComponentLedger)}
}

// List returns the user's categories plus the system ones.
func (s *CategoryService) List(ctx context.Context, user models.User, categoryType *models.CategoryType, page storage.Page) ([]models.Category, error) {
	cats, err := s.store.VisibleCategories(ctx, user.ID, categoryType, page.Normalize(defaultCategoryLimit))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create adds a custom category. A visible category with the same name and type
// is a conflict.
func (s *CategoryService) Create(ctx context.Context, user models.User, req dto.CategoryCreate) (models.Category, error) {
	if err := req.Validate(); err != nil {
		return models.Category{}, err
	}
	if err := s.ensureNameFree(ctx, user.ID, req.Name, req.Type); err != nil {
		return models.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, models.Category{
		UserID: &user.ID,
		Name:   req.Name,
		Type:   req.Type,
		Color:  *req.Color,
		Icon:   req.Icon,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Category{}, errCategoryExists
		}
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.log.InfoContext(ctx, "category created", logging.NewFields().WithOperation(logging.OpCreate).WithUser(user.ID).WithEntity(created.ID).ToSlice()...)
	return created, nil
}

// Get returns a category the user may read.
func (s *CategoryService) Get(ctx context.Context, user models.User, id int64) (models.Category, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if !c.VisibleTo(user.ID) {
		return models.Category{}, apperr.Forbidden("category does not belong to this user")
	}
	return c, nil
}

// Update applies a partial update to one of the user's own categories.
func (s *CategoryService) Update(ctx context.Context, user models.User, id int64, upd dto.CategoryUpdate) (models.Category, error) {
	c, err := s.loadOwned(ctx, user, id, "modified")
	if err != nil {
		return models.Category{}, err
	}
	if err := upd.Validate(); err != nil {
		return models.Category{}, err
	}

	changes := storage.CategoryChanges{
		Name:  upd.Name.Ptr(),
		Type:  upd.Type.Ptr(),
		Color: upd.Color.Ptr(),
		Icon:  upd.Icon,
	}
	name, kind := c.Name, c.Type
	if changes.Name != nil {
		name = *changes.Name
	}
	if changes.Type != nil {
		kind = *changes.Type
	}
	if name != c.Name || kind != c.Type {
		if err := s.ensureNameFree(ctx, user.ID, name, kind); err != nil {
			return models.Category{}, err
		}
	}

	updated, err := s.store.UpdateCategory(ctx, id, changes)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.Category{}, apperr.NotFound("category not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		return models.Category{}, errCategoryExists
	case err != nil:
		return models.Category{}, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

// Delete removes one of the user's own categories. Its transactions survive
// without a category.
func (s *CategoryService) Delete(ctx context.Context, user models.User, id int64) error {
	if _, err := s.loadOwned(ctx, user, id, "deleted"); err != nil {
		return err
	}
	err := s.store.DeleteCategory(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("category not found")
	case err != nil:
		return fmt.Errorf("delete category: %w", err)
	}
	s.log.InfoContext(ctx, "category deleted", logging.NewFields().WithOperation(logging.OpDelete).WithUser(user.ID).WithEntity(id).ToSlice()...)
	return nil
}

func (s *CategoryService) load(ctx context.Context, id int64) (models.Category, error) {
	c, err := s.store.CategoryByID(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.Category{}, apperr.NotFound("category not found")
	case err != nil:
		return models.Category{}, fmt.Errorf("load category: %w", err)
	}
	return c, nil
}

// loadOwned resolves a category the user may mutate. verb names the attempted
// mutation in the system-category message.
func (s *CategoryService) loadOwned(ctx context.Context, user models.User, id int64, verb string) (models.Category, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if c.IsSystem {
		return models.Category{}, apperr.Forbidden("system categories cannot be " + verb)
	}
	if !c.OwnedBy(user.ID) {
		return models.Category{}, apperr.Forbidden("category does not belong to this user")
	}
	return c, nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, userID int64, name string, kind models.CategoryType) error {
	_, err := s.store.CategoryByName(ctx, userID, name, kind)
	switch {
	case err == nil:
		return errCategoryExists
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check category name: %w", err)
	}
}
