//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/inkwell-app/apiserver/config"
	"github.com/inkwell-app/apiserver/internal/server"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestBookLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	password := "testpass123!"

	author, err := registerUser(t, baseURL, fmt.Sprintf("author_%d", suffix), password)
	if err != nil {
		t.Fatalf("register author: %v", err)
	}
	reader, err := registerUser(t, baseURL, fmt.Sprintf("reader_%d", suffix), password)
	if err != nil {
		t.Fatalf("register reader: %v", err)
	}

	book, err := createBook(t, baseURL, author.Token, map[string]any{
		"title":       "The Salt Garden",
		"author":      "M. Hale",
		"description": "A family drama on the Norfolk coast.",
		"privacy":     "public",
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if book.ID == 0 {
		t.Fatalf("expected book ID to be set")
	}
	if book.Privacy != "public" {
		t.Fatalf("unexpected privacy: %q", book.Privacy)
	}

	// The first chapter number is claimed; a second chapter reusing it
	// must be rejected with a conflict.
	if err := createChapter(t, baseURL, author.Token, book.ID, 1, "Arrival", "The tide was out.\nThe flats shone."); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if status := createChapterStatus(t, baseURL, author.Token, book.ID, 1, "Duplicate", "x"); status != http.StatusConflict {
		t.Fatalf("expected duplicate chapter conflict, got %d", status)
	}

	if err := createReview(t, baseURL, reader.Token, book.ID, 4, "Slow start, strong finish."); err != nil {
		t.Fatalf("create review: %v", err)
	}

	fetched, err := getBook(t, baseURL, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if fetched.Rating == nil || *fetched.Rating != 4 {
		t.Fatalf("expected rating 4 after review, got %v", fetched.Rating)
	}

	if err := patchBook(t, baseURL, author.Token, book.ID, "title", "The Salt Garden, Revised"); err != nil {
		t.Fatalf("patch book: %v", err)
	}
	fetched, err = getBook(t, baseURL, book.ID)
	if err != nil {
		t.Fatalf("get book after patch: %v", err)
	}
	if fetched.Title != "The Salt Garden, Revised" {
		t.Fatalf("unexpected title after patch: %q", fetched.Title)
	}

	if err := deleteBook(t, baseURL, author.Token, book.ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if err := expectBookNotFound(t, baseURL, book.ID); err != nil {
		t.Fatalf("expected deleted book to be missing: %v", err)
	}
}

func TestPrivateBookHiddenFromOthers(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	password := "testpass123!"

	owner, err := registerUser(t, baseURL, fmt.Sprintf("owner_%d", suffix), password)
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	stranger, err := registerUser(t, baseURL, fmt.Sprintf("stranger_%d", suffix), password)
	if err != nil {
		t.Fatalf("register stranger: %v", err)
	}

	book, err := createBook(t, baseURL, owner.Token, map[string]any{
		"title":   "Drafts",
		"privacy": "private",
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	defer func() {
		_ = deleteBook(t, baseURL, owner.Token, book.ID)
	}()

	ownerBooks, err := listBooksByUser(t, baseURL, owner.Token, owner.UserID)
	if err != nil {
		t.Fatalf("list books as owner: %v", err)
	}
	if !containsBook(ownerBooks, book.ID) {
		t.Fatalf("owner should see own private book")
	}

	strangerBooks, err := listBooksByUser(t, baseURL, stranger.Token, owner.UserID)
	if err != nil {
		t.Fatalf("list books as stranger: %v", err)
	}
	if containsBook(strangerBooks, book.ID) {
		t.Fatalf("stranger should not see a private book")
	}
}

func TestAdminCanDeleteReview(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	password := "testpass123!"

	authorName := fmt.Sprintf("mod_author_%d", suffix)
	author, err := registerUser(t, baseURL, authorName, password)
	if err != nil {
		t.Fatalf("register author: %v", err)
	}
	reviewerName := fmt.Sprintf("mod_reviewer_%d", suffix)
	reviewer, err := registerUser(t, baseURL, reviewerName, password)
	if err != nil {
		t.Fatalf("register reviewer: %v", err)
	}
	adminName := fmt.Sprintf("mod_admin_%d", suffix)
	admin, err := registerUser(t, baseURL, adminName, password)
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if err := promoteUserToAdmin(adminName); err != nil {
		t.Fatalf("promote user: %v", err)
	}

	book, err := createBook(t, baseURL, author.Token, map[string]any{
		"title":   "Moderated",
		"privacy": "public",
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	defer func() {
		_ = deleteBook(t, baseURL, author.Token, book.ID)
	}()

	if err := createReview(t, baseURL, reviewer.Token, book.ID, 1, "Spam."); err != nil {
		t.Fatalf("create review: %v", err)
	}
	reviews, err := listReviews(t, baseURL, book.ID)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected one review, got %d", len(reviews))
	}

	if status := deleteReviewStatus(t, baseURL, reviewer.Token, reviews[0].ID); status != http.StatusForbidden {
		t.Fatalf("expected non-admin review delete to be forbidden, got %d", status)
	}
	if status := deleteReviewStatus(t, baseURL, admin.Token, reviews[0].ID); status != http.StatusOK {
		t.Fatalf("expected admin review delete to succeed, got %d", status)
	}

	fetched, err := getBook(t, baseURL, book.ID)
	if err != nil {
		t.Fatalf("get book after moderation: %v", err)
	}
	if fetched.Rating != nil {
		t.Fatalf("expected rating cleared after last review removed, got %v", *fetched.Rating)
	}
}

type envelope struct {
	Message string          `json:"message"`
	Content json.RawMessage `json:"content"`
}

type bookResponse struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Privacy string   `json:"privacy"`
	Rating  *float64 `json:"rating"`
}

type reviewResponse struct {
	ID     int `json:"id"`
	Rating int `json:"rating"`
}

type session struct {
	Token  string
	UserID int
}

func registerUser(t *testing.T, baseURL, username, password string) (session, error) {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": password,
	}

	env, status, err := doJSON(http.MethodPost, baseURL+"/user/register", "", payload)
	if err != nil {
		return session{}, err
	}
	if status != http.StatusCreated {
		return session{}, fmt.Errorf("register status %d", status)
	}

	var parsed struct {
		Token string `json:"token"`
		User  struct {
			ID int `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Content, &parsed); err != nil {
		return session{}, err
	}
	if parsed.Token == "" {
		return session{}, fmt.Errorf("missing token in register response")
	}
	return session{Token: parsed.Token, UserID: parsed.User.ID}, nil
}

func promoteUserToAdmin(username string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = db.ExecContext(ctx, "UPDATE users SET role = 'admin', updated_at = NOW() WHERE username = $1", username)
	return err
}

func createBook(t *testing.T, baseURL, token string, payload map[string]any) (bookResponse, error) {
	t.Helper()

	env, status, err := doJSON(http.MethodPost, baseURL+"/book/create", token, payload)
	if err != nil {
		return bookResponse{}, err
	}
	if status != http.StatusCreated {
		return bookResponse{}, fmt.Errorf("create book status %d: %s", status, env.Message)
	}

	var parsed bookResponse
	if err := json.Unmarshal(env.Content, &parsed); err != nil {
		return bookResponse{}, err
	}
	return parsed, nil
}

func getBook(t *testing.T, baseURL string, id int) (bookResponse, error) {
	t.Helper()

	env, status, err := doJSON(http.MethodGet, fmt.Sprintf("%s/book/get/%d", baseURL, id), "", nil)
	if err != nil {
		return bookResponse{}, err
	}
	if status != http.StatusOK {
		return bookResponse{}, fmt.Errorf("get book status %d", status)
	}

	var parsed bookResponse
	if err := json.Unmarshal(env.Content, &parsed); err != nil {
		return bookResponse{}, err
	}
	return parsed, nil
}

func listBooksByUser(t *testing.T, baseURL, token string, userID int) ([]bookResponse, error) {
	t.Helper()

	env, status, err := doJSON(http.MethodGet, fmt.Sprintf("%s/book/get/books/%d", baseURL, userID), token, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list books status %d", status)
	}

	var parsed []bookResponse
	if err := json.Unmarshal(env.Content, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func patchBook(t *testing.T, baseURL, token string, id int, property string, value any) error {
	t.Helper()

	payload := map[string]any{"property": property, "value": value}
	env, status, err := doJSON(http.MethodPatch, fmt.Sprintf("%s/book/patch/%d", baseURL, id), token, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("patch book status %d: %s", status, env.Message)
	}
	return nil
}

func deleteBook(t *testing.T, baseURL, token string, id int) error {
	t.Helper()

	_, status, err := doJSON(http.MethodDelete, fmt.Sprintf("%s/book/delete/%d", baseURL, id), token, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("delete book status %d", status)
	}
	return nil
}

func expectBookNotFound(t *testing.T, baseURL string, id int) error {
	t.Helper()

	_, status, err := doJSON(http.MethodGet, fmt.Sprintf("%s/book/get/%d", baseURL, id), "", nil)
	if err != nil {
		return err
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("expected 404 after delete, got %d", status)
	}
	return nil
}

func createChapter(t *testing.T, baseURL, token string, bookID, number int, title, content string) error {
	t.Helper()

	if status := createChapterStatus(t, baseURL, token, bookID, number, title, content); status != http.StatusCreated {
		return fmt.Errorf("create chapter status %d", status)
	}
	return nil
}

func createChapterStatus(t *testing.T, baseURL, token string, bookID, number int, title, content string) int {
	t.Helper()

	payload := map[string]any{
		"bookId":        bookID,
		"chapterNumber": number,
		"title":         title,
		"content":       content,
	}
	_, status, err := doJSON(http.MethodPost, baseURL+"/chapter/create", token, payload)
	if err != nil {
		t.Fatalf("create chapter request: %v", err)
	}
	return status
}

func createReview(t *testing.T, baseURL, token string, bookID, rating int, comment string) error {
	t.Helper()

	payload := map[string]any{"rating": rating, "comment": comment}
	env, status, err := doJSON(http.MethodPost, fmt.Sprintf("%s/review/create/%d", baseURL, bookID), token, payload)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("create review status %d: %s", status, env.Message)
	}
	return nil
}

func listReviews(t *testing.T, baseURL string, bookID int) ([]reviewResponse, error) {
	t.Helper()

	env, status, err := doJSON(http.MethodGet, fmt.Sprintf("%s/review/get/%d", baseURL, bookID), "", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list reviews status %d", status)
	}

	var parsed []reviewResponse
	if err := json.Unmarshal(env.Content, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func deleteReviewStatus(t *testing.T, baseURL, token string, reviewID int) int {
	t.Helper()

	_, status, err := doJSON(http.MethodDelete, fmt.Sprintf("%s/review/delete/%d", baseURL, reviewID), token, nil)
	if err != nil {
		t.Fatalf("delete review request: %v", err)
	}
	return status
}

func containsBook(books []bookResponse, id int) bool {
	for _, book := range books {
		if book.ID == id {
			return true
		}
	}
	return false
}

func doJSON(method, url, token string, payload any) (envelope, int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return envelope{}, 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return envelope{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return envelope{}, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return envelope{}, resp.StatusCode, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, resp.StatusCode, err
	}

	var env envelope
	if len(data) > 0 {
		if err := json.Unmarshal(data, &env); err != nil {
			return envelope{}, resp.StatusCode, fmt.Errorf("decode response %q: %w", strings.TrimSpace(string(data)), err)
		}
	}
	return env, resp.StatusCode, nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "inkwell")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "inkwell_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_BACKEND", "minio")
	_ = os.Setenv("MINIO_ENDPOINT", "localhost:9000")
	_ = os.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	_ = os.Setenv("MINIO_SECRET_KEY", "minioadmin")
	_ = os.Setenv("MINIO_BUCKET", "inkwell-uploads")
	_ = os.Setenv("MQ_BACKEND", "")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
