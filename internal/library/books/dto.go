package books

import "time"

type CreateBookRequest struct {
	Title                string `json:"title" binding:"required"`
	AuthorName           string `json:"author_name" binding:"required"`
	Description          string `json:"description" binding:"required"`
	ImgURL               string `json:"img_url" binding:"required,url"`
	PublicShelfQuantity  *int   `json:"public_shelf_quantity" binding:"required,gte=0"`
	PrivateShelfQuantity *int   `json:"private_shelf_quantity" binding:"required,gte=0"`
}

// EditBookDetailsRequest patches descriptive fields only. The handler binds
// it with unknown fields disallowed, so a stray quantity field is rejected
// instead of silently ignored.
type EditBookDetailsRequest struct {
	ID          string  `json:"id" binding:"required"`
	Title       *string `json:"title,omitempty"`
	AuthorName  *string `json:"author_name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImgURL      *string `json:"img_url,omitempty"`
}

type EditBookQuantityRequest struct {
	ID                   string `json:"id" binding:"required"`
	PublicShelfQuantity  *int   `json:"public_shelf_quantity,omitempty" binding:"omitempty,gte=0"`
	PrivateShelfQuantity *int   `json:"private_shelf_quantity,omitempty" binding:"omitempty,gte=0"`
}

// BookView is the role-projected response shape. Manager-only fields are
// pointers left nil for anonymous and borrower callers.
type BookView struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	AuthorName           string    `json:"author_name"`
	Description          string    `json:"description"`
	ImgURL               string    `json:"img_url"`
	PublicShelfQuantity  int       `json:"public_shelf_quantity"`
	CurrentBorrowCount   int       `json:"current_borrow_count"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	ProprietorID         *string   `json:"proprietor_id,omitempty"`
	TotalQuantity        *int      `json:"total_quantity,omitempty"`
	PrivateShelfQuantity *int      `json:"private_shelf_quantity,omitempty"`
}
