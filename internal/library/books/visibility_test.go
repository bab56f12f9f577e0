package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"
)

func sampleBook(id string, public, private, borrowed int) BookWithCount {
	return BookWithCount{
		Book: Book{
			ID:                   id,
			ProprietorID:         "prop-1",
			Title:                "Things Fall Apart",
			AuthorName:           "Chinua Achebe",
			PublicShelfQuantity:  public,
			PrivateShelfQuantity: private,
			TotalQuantity:        public + private,
		},
		CurrentBorrowCount: borrowed,
	}
}

func TestProjectBook(t *testing.T) {
	b := sampleBook("b1", 3, 2, 1)

	t.Run("anonymous sees the public shelf only", func(t *testing.T) {
		view := ProjectBook(AnonymousViewer(), b)
		assert.Equal(t, 3, view.PublicShelfQuantity)
		assert.Equal(t, 1, view.CurrentBorrowCount)
		assert.Nil(t, view.ProprietorID)
		assert.Nil(t, view.TotalQuantity)
		assert.Nil(t, view.PrivateShelfQuantity)
	})

	t.Run("borrower sees the same view as anonymous", func(t *testing.T) {
		view := ProjectBook(ViewerFor(auth.RoleBorrower), b)
		assert.Nil(t, view.ProprietorID)
		assert.Nil(t, view.TotalQuantity)
		assert.Nil(t, view.PrivateShelfQuantity)
	})

	for _, role := range []auth.Role{auth.RoleProprietor, auth.RoleLibrarian} {
		t.Run("manager "+string(role)+" sees the full breakdown", func(t *testing.T) {
			view := ProjectBook(ViewerFor(role), b)
			require.NotNil(t, view.TotalQuantity)
			require.NotNil(t, view.PrivateShelfQuantity)
			require.NotNil(t, view.ProprietorID)
			assert.Equal(t, 5, *view.TotalQuantity)
			assert.Equal(t, 2, *view.PrivateShelfQuantity)
			assert.Equal(t, "prop-1", *view.ProprietorID)
		})
	}
}

func TestProjectBooksHidesEmptyPublicShelf(t *testing.T) {
	items := []BookWithCount{
		sampleBook("visible", 2, 0, 0),
		sampleBook("private-only", 0, 4, 0),
	}

	public := ProjectBooks(AnonymousViewer(), items)
	require.Len(t, public, 1)
	assert.Equal(t, "visible", public[0].ID)

	managed := ProjectBooks(ViewerFor(auth.RoleLibrarian), items)
	assert.Len(t, managed, 2)
}
