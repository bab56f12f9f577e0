package books

import (
	"database/sql"
	"time"
)

// Book is a row in the books table. TotalQuantity is persisted for
// convenience but must always equal PublicShelfQuantity +
// PrivateShelfQuantity; the store recomputes it on every quantity write.
type Book struct {
	ID                   string
	ProprietorID         string
	Title                string
	AuthorName           string
	Description          string
	ImgURL               string
	TotalQuantity        int
	PublicShelfQuantity  int
	PrivateShelfQuantity int
	CreatedAt            time.Time
	UpdatedAt            time.Time
	IsDeleted            bool
	DeletedAt            sql.NullTime
}

// BookWithCount is the borrower-visible aggregate: a book plus its live open
// loan count. Never stored; computed per read. Both the checkout eligibility
// check and the quantity-edit eligibility check depend on it.
type BookWithCount struct {
	Book
	CurrentBorrowCount int
}

// DetailsPatch lists the mutable descriptive fields. Quantity fields are
// deliberately absent; those go through EditQuantities only.
type DetailsPatch struct {
	Title       *string
	AuthorName  *string
	Description *string
	ImgURL      *string
}

func (p DetailsPatch) isEmpty() bool {
	return p.Title == nil && p.AuthorName == nil && p.Description == nil && p.ImgURL == nil
}
