package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkwell-app/apiserver/config"
	"github.com/inkwell-app/apiserver/internal/db"
	"github.com/inkwell-app/apiserver/internal/handlers"
	"github.com/inkwell-app/apiserver/internal/mq"
	"github.com/inkwell-app/apiserver/internal/services"
	"github.com/inkwell-app/apiserver/internal/storage"
	"github.com/inkwell-app/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New wires the storage, broker, repositories, services and routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := newBroker(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	bookRepo := store.NewBookRepository(dbConn)
	chapterRepo := store.NewChapterRepository(dbConn)
	tagRepo := store.NewTagRepository(dbConn)
	reviewRepo := store.NewReviewRepository(dbConn)

	events := services.NewEventPublisher(broker, cfg.MQ.Channel)

	userService := services.NewUserService(userRepo)
	bookService := services.NewBookService(bookRepo, chapterRepo, reviewRepo, events)
	chapterService := services.NewChapterService(chapterRepo, bookRepo, events)
	reviewService := services.NewReviewService(reviewRepo, events)
	tagService := services.NewTagService(tagRepo, bookRepo)
	adminService := services.NewAdminService(userRepo)
	pictureService := services.NewPictureService(objectStore, userRepo, bookRepo)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/user", func(r chi.Router) {
		handlers.UserRouter(r, userService, pictureService, jwtSecret)
	})
	router.Route("/book", func(r chi.Router) {
		handlers.BookRouter(r, bookService, pictureService, userService, jwtSecret)
	})
	router.Route("/chapter", func(r chi.Router) {
		handlers.ChapterRouter(r, chapterService, userService, jwtSecret)
	})
	router.Route("/review", func(r chi.Router) {
		handlers.ReviewRouter(r, reviewService, userService, jwtSecret)
	})
	router.Route("/tag", func(r chi.Router) {
		handlers.TagRouter(r, tagService, userService, jwtSecret)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, adminService, userService, jwtSecret)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown closes the broker, the database pool and the HTTP server.
func (s *Server) Shutdown() error {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newObjectStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "", "minio":
		client, err := storage.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(client), nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.Storage.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(client), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// newBroker returns nil when no message-queue backend is configured;
// event publishing is then disabled.
func newBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MQ.Backend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.MQ.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.MQ.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.MQ.Backend)
	}
}
