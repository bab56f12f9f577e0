package books

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"
)

func TestFoldText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Márquez", "marquez"},
		{"CRIME AND PUNISHMENT", "crime and punishment"},
		{"Wole Ṣóyínká", "wole soyinka"},
		{"straße", "strasse"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, foldText(tt.in), "foldText(%q)", tt.in)
	}
}

func TestSearch(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	store := newFakeBookStore()
	store.books["b1"] = &Book{
		ID: "b1", Title: "Cien años de soledad", AuthorName: "Gabriel García Márquez",
		PublicShelfQuantity: 2, TotalQuantity: 2,
	}
	store.books["b2"] = &Book{
		ID: "b2", Title: "1984", AuthorName: "George Orwell",
		Description: "Dystopian surveillance state", PublicShelfQuantity: 1, TotalQuantity: 1,
	}
	store.books["b3"] = &Book{
		ID: "b3", Title: "Hidden stock", AuthorName: "Nobody",
		PublicShelfQuantity: 0, PrivateShelfQuantity: 3, TotalQuantity: 3,
	}
	svc := newTestService(store, now)

	idsOf := func(views []BookView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	t.Run("accent and case insensitive on author", func(t *testing.T) {
		got, err := svc.Search(ctx, AnonymousViewer(), "marquez")
		require.NoError(t, err)
		assert.Equal(t, []string{"b1"}, idsOf(got))
	})

	t.Run("matches description text", func(t *testing.T) {
		got, err := svc.Search(ctx, AnonymousViewer(), "SURVEILLANCE")
		require.NoError(t, err)
		assert.Equal(t, []string{"b2"}, idsOf(got))
	})

	t.Run("projection still hides private-only books", func(t *testing.T) {
		got, err := svc.Search(ctx, AnonymousViewer(), "hidden")
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = svc.Search(ctx, ViewerFor(auth.RoleLibrarian), "hidden")
		require.NoError(t, err)
		assert.Equal(t, []string{"b3"}, idsOf(got))
	})

	t.Run("blank query returns the whole visible catalogue", func(t *testing.T) {
		got, err := svc.Search(ctx, AnonymousViewer(), "   ")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
