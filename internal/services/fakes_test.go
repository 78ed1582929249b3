package services

import (
	"context"
	"sort"

	"github.com/inkwell-app/apiserver/internal/store"
	"github.com/inkwell-app/apiserver/types"
)

// In-memory repositories mirroring the store contracts, including the
// sentinel errors and the rating recompute performed by the SQL layer.

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

func (r *fakeBookRepo) sorted() []types.Book {
	ids := make([]int, 0, len(r.books))
	for id := range r.books {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	books := make([]types.Book, 0, len(ids))
	for _, id := range ids {
		books = append(books, r.books[id])
	}
	return books
}

func (r *fakeBookRepo) List(context.Context) ([]types.Book, error) {
	return r.sorted(), nil
}

func (r *fakeBookRepo) ListByUser(_ context.Context, userID int) ([]types.Book, error) {
	var books []types.Book
	for _, book := range r.sorted() {
		if book.UserID == userID {
			books = append(books, book)
		}
	}
	return books, nil
}

func (r *fakeBookRepo) ListByTags(_ context.Context, tagIDs []int64) ([]types.Book, error) {
	var books []types.Book
	for _, book := range r.sorted() {
		if intersects(book.Tags, tagIDs) {
			books = append(books, book)
		}
	}
	return books, nil
}

func intersects(a, b []int64) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
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

func (r *fakeBookRepo) AddTags(_ context.Context, bookID int, tagIDs []int64) error {
	book, ok := r.books[bookID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range tagIDs {
		if !intersects(book.Tags, []int64{id}) {
			book.Tags = append(book.Tags, id)
		}
	}
	sort.Slice(book.Tags, func(i, j int) bool { return book.Tags[i] < book.Tags[j] })
	r.books[bookID] = book
	return nil
}

func (r *fakeBookRepo) RemoveTags(_ context.Context, bookID int, tagIDs []int64) error {
	book, ok := r.books[bookID]
	if !ok {
		return store.ErrNotFound
	}
	kept := book.Tags[:0]
	for _, id := range book.Tags {
		if !intersects(tagIDs, []int64{id}) {
			kept = append(kept, id)
		}
	}
	book.Tags = kept
	r.books[bookID] = book
	return nil
}

func (r *fakeBookRepo) SetCoverPicture(_ context.Context, id int, key string) error {
	book, ok := r.books[id]
	if !ok {
		return store.ErrNotFound
	}
	book.CoverPicture = key
	r.books[id] = book
	return nil
}

type fakeChapterRepo struct {
	chapters map[int]types.Chapter
	nextID   int
}

func newFakeChapterRepo(chapters ...types.Chapter) *fakeChapterRepo {
	repo := &fakeChapterRepo{chapters: make(map[int]types.Chapter)}
	for _, chapter := range chapters {
		if chapter.ID > repo.nextID {
			repo.nextID = chapter.ID
		}
		repo.chapters[chapter.ID] = chapter
	}
	return repo
}

func (r *fakeChapterRepo) numberTaken(chapter types.Chapter) bool {
	for _, existing := range r.chapters {
		if existing.ID != chapter.ID &&
			existing.BookID == chapter.BookID &&
			existing.ChapterNumber == chapter.ChapterNumber {
			return true
		}
	}
	return false
}

func (r *fakeChapterRepo) Get(_ context.Context, id int) (types.Chapter, error) {
	chapter, ok := r.chapters[id]
	if !ok {
		return types.Chapter{}, store.ErrNotFound
	}
	return chapter, nil
}

func (r *fakeChapterRepo) ListByBook(_ context.Context, bookID int) ([]types.Chapter, error) {
	var chapters []types.Chapter
	for _, chapter := range r.chapters {
		if chapter.BookID == bookID {
			chapters = append(chapters, chapter)
		}
	}
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].ChapterNumber < chapters[j].ChapterNumber
	})
	return chapters, nil
}

func (r *fakeChapterRepo) Create(_ context.Context, chapter types.Chapter) (types.Chapter, error) {
	if r.numberTaken(chapter) {
		return types.Chapter{}, store.ErrConflict
	}
	r.nextID++
	chapter.ID = r.nextID
	r.chapters[chapter.ID] = chapter
	return chapter, nil
}

func (r *fakeChapterRepo) Update(_ context.Context, chapter types.Chapter) (types.Chapter, error) {
	if _, ok := r.chapters[chapter.ID]; !ok {
		return types.Chapter{}, store.ErrNotFound
	}
	if r.numberTaken(chapter) {
		return types.Chapter{}, store.ErrConflict
	}
	r.chapters[chapter.ID] = chapter
	return chapter, nil
}

func (r *fakeChapterRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.chapters[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.chapters, id)
	return nil
}

// fakeReviewRepo recomputes the owning book's mean rating on every write,
// mirroring the transactional SQL repository.
type fakeReviewRepo struct {
	reviews map[int]types.Review
	books   *fakeBookRepo
	nextID  int
}

func newFakeReviewRepo(books *fakeBookRepo, reviews ...types.Review) *fakeReviewRepo {
	repo := &fakeReviewRepo{reviews: make(map[int]types.Review), books: books}
	for _, review := range reviews {
		if review.ID > repo.nextID {
			repo.nextID = review.ID
		}
		repo.reviews[review.ID] = review
	}
	return repo
}

func (r *fakeReviewRepo) recompute(bookID int) {
	if r.books == nil {
		return
	}
	book, ok := r.books.books[bookID]
	if !ok {
		return
	}
	var sum, count int
	for _, review := range r.reviews {
		if review.BookID == bookID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		book.Rating = nil
	} else {
		mean := float64(sum) / float64(count)
		book.Rating = &mean
	}
	r.books.books[bookID] = book
}

func (r *fakeReviewRepo) Get(_ context.Context, id int) (types.Review, error) {
	review, ok := r.reviews[id]
	if !ok {
		return types.Review{}, store.ErrNotFound
	}
	return review, nil
}

func (r *fakeReviewRepo) ListByBook(_ context.Context, bookID int) ([]types.Review, error) {
	var reviews []types.Review
	for _, review := range r.reviews {
		if review.BookID == bookID {
			reviews = append(reviews, review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews, nil
}

func (r *fakeReviewRepo) Create(_ context.Context, review types.Review) (types.Review, error) {
	for _, existing := range r.reviews {
		if existing.UserID == review.UserID && existing.BookID == review.BookID {
			return types.Review{}, store.ErrConflict
		}
	}
	r.nextID++
	review.ID = r.nextID
	r.reviews[review.ID] = review
	r.recompute(review.BookID)
	return review, nil
}

func (r *fakeReviewRepo) Update(_ context.Context, review types.Review) (types.Review, error) {
	if _, ok := r.reviews[review.ID]; !ok {
		return types.Review{}, store.ErrNotFound
	}
	r.reviews[review.ID] = review
	r.recompute(review.BookID)
	return review, nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id int) error {
	review, ok := r.reviews[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(r.reviews, id)
	r.recompute(review.BookID)
	return nil
}

type fakeTagRepo struct {
	tags   map[int]types.Tag
	nextID int
}

func newFakeTagRepo(tags ...types.Tag) *fakeTagRepo {
	repo := &fakeTagRepo{tags: make(map[int]types.Tag)}
	for _, tag := range tags {
		if tag.ID > repo.nextID {
			repo.nextID = tag.ID
		}
		repo.tags[tag.ID] = tag
	}
	return repo
}

func (r *fakeTagRepo) Get(_ context.Context, id int) (types.Tag, error) {
	tag, ok := r.tags[id]
	if !ok {
		return types.Tag{}, store.ErrNotFound
	}
	return tag, nil
}

func (r *fakeTagRepo) List(context.Context) ([]types.Tag, error) {
	var tags []types.Tag
	for _, tag := range r.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

func (r *fakeTagRepo) Create(_ context.Context, tag types.Tag) (types.Tag, error) {
	for _, existing := range r.tags {
		if existing.TagName == tag.TagName {
			return types.Tag{}, store.ErrConflict
		}
	}
	r.nextID++
	tag.ID = r.nextID
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *fakeTagRepo) Update(_ context.Context, tag types.Tag) (types.Tag, error) {
	if _, ok := r.tags[tag.ID]; !ok {
		return types.Tag{}, store.ErrNotFound
	}
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *fakeTagRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.tags[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.tags, id)
	return nil
}

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
	for _, existing := range r.users {
		if existing.ID != user.ID && existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) SetProfilePicture(_ context.Context, id int, key string) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.ProfilePicture = key
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}
