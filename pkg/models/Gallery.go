package models

import (
	"fmt"
)

var (
	ErrGalleryNotFound = fmt.Errorf("gallery not found")
)

type Gallery struct {
	BaseModel

	UserID       uint
	Name         string
	Description  string
	IsPublic     bool
	Theme        string
	CoverImageID string
	Images       []GalleryImage

	/*
	 * NumImages and CoverURL are resolved at read time. They are never
	 * written back to the database.
	 */
	NumImages int
	CoverURL  string
}

/*
GalleryUpdate carries everything a bulk gallery save can change: the
gallery's own metadata, per-member descriptions keyed by member ID, and
the member order as an ordered ID list. Nil maps/slices leave that part
untouched.
*/
type GalleryUpdate struct {
	Name         string
	Description  string
	IsPublic     bool
	Theme        string
	CoverImageID string
	Descriptions map[string]string
	MemberOrder  []string
}
