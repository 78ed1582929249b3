package services

import "github.com/inkwell-app/apiserver/types"

// VisibleBooks filters a candidate set of books down to those the viewer
// may see. A nil viewer is an anonymous request.
//
// Two independent passes:
//
//  1. Base predicate: anonymous viewers see only public books; an
//     authenticated viewer sees every non-private book plus their own
//     private ones.
//  2. Hard filter for limited books: a limited book survives only when
//     the viewer owns it or appears on its allow-list. Books with any
//     other privacy mode pass unconditionally.
//
// The second pass never re-admits a book excluded by the first; a limited
// book is unreachable for viewers who are neither owner nor allow-listed,
// whatever the first pass decided. Order of the input is preserved and an
// empty result is valid.
func VisibleBooks(books []types.Book, viewer *types.User) []types.Book {
	base := make([]types.Book, 0, len(books))
	for _, book := range books {
		if viewer == nil {
			if book.Privacy == types.PrivacyPublic {
				base = append(base, book)
			}
			continue
		}
		if book.Privacy != types.PrivacyPrivate || book.UserID == viewer.ID {
			base = append(base, book)
		}
	}

	visible := base[:0]
	for _, book := range base {
		if book.Privacy != types.PrivacyLimited {
			visible = append(visible, book)
			continue
		}
		if viewer == nil {
			continue
		}
		if book.UserID == viewer.ID || isAllowed(book.AllowedUsers, viewer.ID) {
			visible = append(visible, book)
		}
	}
	return visible
}

func isAllowed(allowedUsers []int64, viewerID int) bool {
	for _, id := range allowedUsers {
		if id == int64(viewerID) {
			return true
		}
	}
	return false
}
