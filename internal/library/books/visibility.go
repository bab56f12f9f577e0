package books

import "github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"

// Visibility policy: anonymous and borrower callers see the public shelf
// only; managers (proprietor, librarian) see the full quantity breakdown.

// Viewer is the capability set a projection decision needs. Anonymous
// callers are the zero value.
type Viewer struct {
	Authenticated bool
	Role          auth.Role
}

func AnonymousViewer() Viewer { return Viewer{} }

func ViewerFor(role auth.Role) Viewer {
	return Viewer{Authenticated: true, Role: role}
}

func (v Viewer) IsManager() bool {
	return v.Authenticated && v.Role.IsManager()
}

// ProjectBook returns the view of b appropriate for the viewer.
func ProjectBook(v Viewer, b BookWithCount) BookView {
	view := BookView{
		ID:                  b.ID,
		Title:               b.Title,
		AuthorName:          b.AuthorName,
		Description:         b.Description,
		ImgURL:              b.ImgURL,
		PublicShelfQuantity: b.PublicShelfQuantity,
		CurrentBorrowCount:  b.CurrentBorrowCount,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
	if v.IsManager() {
		proprietorID := b.ProprietorID
		total := b.TotalQuantity
		private := b.PrivateShelfQuantity
		view.ProprietorID = &proprietorID
		view.TotalQuantity = &total
		view.PrivateShelfQuantity = &private
	}
	return view
}

// ProjectBooks applies ProjectBook to a listing and, for non-managers,
// drops books with nothing on the public shelf.
func ProjectBooks(v Viewer, items []BookWithCount) []BookView {
	views := make([]BookView, 0, len(items))
	for _, b := range items {
		if !v.IsManager() && b.PublicShelfQuantity <= 0 {
			continue
		}
		views = append(views, ProjectBook(v, b))
	}
	return views
}
