package books

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/db"
)

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ===== Service =====

type Service struct {
	store BookStore
	clock Clock
	id    IDGen
}

func NewService(sqlDB *sql.DB) *Service {
	return &Service{
		store: NewStore(sqlDB),
		clock: realClock{},
		id:    ulidGen{},
	}
}

func (s *Service) Create(ctx context.Context, proprietorID string, req CreateBookRequest) (BookView, error) {
	if strings.TrimSpace(proprietorID) == "" {
		return BookView{}, ErrInvalid("proprietor id required")
	}
	public := *req.PublicShelfQuantity
	private := *req.PrivateShelfQuantity
	if public < 0 || private < 0 {
		return BookView{}, ErrInvalid("quantities must be >= 0")
	}

	now := s.clock.Now()
	b := &Book{
		ID:                   s.id.NewULID(now),
		ProprietorID:         proprietorID,
		Title:                req.Title,
		AuthorName:           req.AuthorName,
		Description:          req.Description,
		ImgURL:               req.ImgURL,
		PublicShelfQuantity:  public,
		PrivateShelfQuantity: private,
		TotalQuantity:        public + private,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return BookView{}, err
	}

	return ProjectBook(ViewerFor(auth.RoleProprietor), BookWithCount{Book: *b}), nil
}

func (s *Service) Get(ctx context.Context, v Viewer, id string) (BookView, error) {
	b, err := s.store.GetWithCount(ctx, id)
	if err != nil {
		return BookView{}, err
	}
	if !v.IsManager() && b.PublicShelfQuantity <= 0 {
		return BookView{}, ErrNotFound("book " + id + " not available")
	}
	return ProjectBook(v, *b), nil
}

func (s *Service) List(ctx context.Context, v Viewer) ([]BookView, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return ProjectBooks(v, items), nil
}

// Search matches the query against folded title, author and description and
// applies the same projection and ordering as List.
func (s *Service) Search(ctx context.Context, v Viewer, query string) ([]BookView, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	folded := foldText(strings.TrimSpace(query))
	matched := make([]BookWithCount, 0, len(items))
	for _, b := range items {
		if matchesQuery(b.Book, folded) {
			matched = append(matched, b)
		}
	}
	return ProjectBooks(v, matched), nil
}

func (s *Service) EditDetails(ctx context.Context, req EditBookDetailsRequest) error {
	patch := DetailsPatch{
		Title:       req.Title,
		AuthorName:  req.AuthorName,
		Description: req.Description,
		ImgURL:      req.ImgURL,
	}
	if patch.isEmpty() {
		return ErrInvalid("no fields to update")
	}
	return s.store.ExecEditDetails(ctx, req.ID, patch, s.clock.Now())
}

// EditQuantities requires at least one quantity field. Shrinking the public
// shelf below the live borrow count is a conflict; the transient-lock retry
// wraps the transactional store call.
func (s *Service) EditQuantities(ctx context.Context, req EditBookQuantityRequest) error {
	if req.PublicShelfQuantity == nil && req.PrivateShelfQuantity == nil {
		return ErrInvalid("either public_shelf_quantity or private_shelf_quantity is required")
	}
	if req.PublicShelfQuantity != nil && *req.PublicShelfQuantity < 0 {
		return ErrInvalid("public_shelf_quantity must be >= 0")
	}
	if req.PrivateShelfQuantity != nil && *req.PrivateShelfQuantity < 0 {
		return ErrInvalid("private_shelf_quantity must be >= 0")
	}

	now := s.clock.Now()
	err := db.WithLockRetry(ctx, func() error {
		return s.store.ExecEditQuantities(ctx, req.ID, req.PublicShelfQuantity, req.PrivateShelfQuantity, now)
	})
	if db.IsLockConflict(err) {
		return ErrConflict("write conflict on book, please retry")
	}
	return err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := db.WithLockRetry(ctx, func() error {
		return s.store.ExecSoftDelete(ctx, id, s.clock.Now())
	})
	if db.IsLockConflict(err) {
		return ErrConflict("write conflict on book, please retry")
	}
	return err
}
