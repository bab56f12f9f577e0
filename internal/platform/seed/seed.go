package seed

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/library/books"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"
)

// Config is an explicit seed description. Apply is idempotent: users are
// matched by email and books are only inserted while the catalogue holds
// fewer rows than the seed lists, so repeated invocations are safe.
type Config struct {
	Users []UserSeed
	Books []BookSeed
	// BookProprietorEmail selects which seeded user owns the seeded books.
	BookProprietorEmail string
}

type UserSeed struct {
	Email     string
	Password  string
	FirstName string
	Role      auth.Role
}

type BookSeed struct {
	Title                string
	AuthorName           string
	Description          string
	ImgURL               string
	PublicShelfQuantity  int
	PrivateShelfQuantity int
}

func newULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func Apply(ctx context.Context, sqlDB *sql.DB, cfg Config) error {
	userStore := auth.NewStore(sqlDB)
	bookStore := books.NewStore(sqlDB)
	now := time.Now().UTC()

	for _, u := range cfg.Users {
		existing, err := userStore.GetByEmail(ctx, u.Email)
		if err != nil {
			return fmt.Errorf("seed: lookup user %s: %w", u.Email, err)
		}
		if existing != nil {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := userStore.Insert(ctx, &auth.User{
			ID:           newULID(now),
			Email:        u.Email,
			PasswordHash: string(hash),
			FirstName:    u.FirstName,
			Role:         u.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return fmt.Errorf("seed: insert user %s: %w", u.Email, err)
		}
		log.Printf("[INFO] seeded user %s (%s)", u.Email, u.Role)
	}

	if len(cfg.Books) == 0 {
		return nil
	}

	proprietor, err := userStore.GetByEmail(ctx, cfg.BookProprietorEmail)
	if err != nil {
		return fmt.Errorf("seed: lookup proprietor: %w", err)
	}
	if proprietor == nil {
		log.Printf("[WARN] seed: proprietor %s not found, skipping books", cfg.BookProprietorEmail)
		return nil
	}

	count, err := bookStore.CountAll(ctx)
	if err != nil {
		return err
	}
	if count >= int64(len(cfg.Books)) {
		return nil
	}

	for _, b := range cfg.Books {
		if err := bookStore.Insert(ctx, &books.Book{
			ID:                   newULID(now),
			ProprietorID:         proprietor.ID,
			Title:                b.Title,
			AuthorName:           b.AuthorName,
			Description:          b.Description,
			ImgURL:               b.ImgURL,
			PublicShelfQuantity:  b.PublicShelfQuantity,
			PrivateShelfQuantity: b.PrivateShelfQuantity,
			TotalQuantity:        b.PublicShelfQuantity + b.PrivateShelfQuantity,
			CreatedAt:            now,
			UpdatedAt:            now,
		}); err != nil {
			return fmt.Errorf("seed: insert book %q: %w", b.Title, err)
		}
		log.Printf("[INFO] seeded book %q", b.Title)
	}

	return nil
}

// Default is the development fixture set.
func Default() Config {
	return Config{
		BookProprietorEmail: "proprietor@bibliotheque.dev",
		Users: []UserSeed{
			{Email: "proprietor@bibliotheque.dev", Password: "proprietor-pass", FirstName: "Pat", Role: auth.RoleProprietor},
			{Email: "librarian@bibliotheque.dev", Password: "librarian-pass", FirstName: "Lee", Role: auth.RoleLibrarian},
			{Email: "borrower@bibliotheque.dev", Password: "borrower-pass", FirstName: "Bola", Role: auth.RoleBorrower},
		},
		Books: []BookSeed{
			{Title: "The Hound of the Baskervilles", AuthorName: "Arthur Conan Doyle", Description: "A Sherlock Holmes mystery on the moors.", ImgURL: "https://picsum.photos/200", PublicShelfQuantity: 8, PrivateShelfQuantity: 2},
			{Title: "Nineteen Eighty-Four", AuthorName: "George Orwell", Description: "A dystopia of total surveillance.", ImgURL: "https://picsum.photos/200", PublicShelfQuantity: 12, PrivateShelfQuantity: 3},
			{Title: "Murder on the Orient Express", AuthorName: "Agatha Christie", Description: "Poirot investigates aboard a snowbound train.", ImgURL: "https://picsum.photos/200", PublicShelfQuantity: 6, PrivateShelfQuantity: 1},
			{Title: "Things Fall Apart", AuthorName: "Chinua Achebe", Description: "Okonkwo's world meets colonial upheaval.", ImgURL: "https://picsum.photos/200", PublicShelfQuantity: 10, PrivateShelfQuantity: 2},
			{Title: "Ake: The Years of Childhood", AuthorName: "Wole Soyinka", Description: "A memoir of growing up in Abeokuta.", ImgURL: "https://picsum.photos/200", PublicShelfQuantity: 5, PrivateShelfQuantity: 1},
			{Title: "Half of a Yellow Sun", AuthorName: "Chimamanda Ngozi Adichie", Description: "Lives entwined by the Biafran war.", ImgURL: "https://picsum.photos/200", PublicShelfQuantity: 9, PrivateShelfQuantity: 2},
		},
	}
}
