package handlers

import (
	"context"
	"sort"

	"github.com/inkwell-app/apiserver/internal/store"
	"github.com/inkwell-app/apiserver/types"
)

// Minimal in-memory repositories for routing tests. Behavioral coverage
// of the service rules lives in the services package; these exist so the
// routers can be exercised over real services.

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo(users ...types.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]types.User)}
	for _, user := range users {
		if user.ID > repo.nextID {
			repo.nextID = user.ID
		}
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) List(context.Context) ([]types.User, error) {
	var users []types.User
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeBookRepo struct {
	books  map[int]types.Book
	nextID int
}

func newFakeBookRepo(books ...types.Book) *fakeBookRepo {
	repo := &fakeBookRepo{books: make(map[int]types.Book)}
	for _, book := range books {
		if book.ID > repo.nextID {
			repo.nextID = book.ID
		}
		repo.books[book.ID] = book
	}
	return repo
}

func (r *fakeBookRepo) List(context.Context) ([]types.Book, error) {
	ids := make([]int, 0, len(r.books))
	for id := range r.books {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	books := make([]types.Book, 0, len(ids))
	for _, id := range ids {
		books = append(books, r.books[id])
	}
	return books, nil
}

func (r *fakeBookRepo) ListByUser(_ context.Context, userID int) ([]types.Book, error) {
	all, _ := r.List(context.Background())
	var books []types.Book
	for _, book := range all {
		if book.UserID == userID {
			books = append(books, book)
		}
	}
	return books, nil
}

func (r *fakeBookRepo) ListByTags(_ context.Context, tagIDs []int64) ([]types.Book, error) {
	all, _ := r.List(context.Background())
	var books []types.Book
	for _, book := range all {
		for _, tag := range book.Tags {
			matched := false
			for _, id := range tagIDs {
				if tag == id {
					books = append(books, book)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	return books, nil
}

func (r *fakeBookRepo) Get(_ context.Context, id int) (types.Book, error) {
	book, ok := r.books[id]
	if !ok {
		return types.Book{}, store.ErrNotFound
	}
	return book, nil
}

func (r *fakeBookRepo) Create(_ context.Context, book types.Book) (types.Book, error) {
	r.nextID++
	book.ID = r.nextID
	r.books[book.ID] = book
	return book, nil
}

func (r *fakeBookRepo) Update(_ context.Context, book types.Book) (types.Book, error) {
	if _, ok := r.books[book.ID]; !ok {
		return types.Book{}, store.ErrNotFound
	}
	r.books[book.ID] = book
	return book, nil
}

func (r *fakeBookRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.books[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

type stubChapterLister struct{}

func (stubChapterLister) ListByBook(context.Context, int) ([]types.Chapter, error) {
	return nil, nil
}

type stubReviewLister struct{}

func (stubReviewLister) ListByBook(context.Context, int) ([]types.Review, error) {
	return nil, nil
}
