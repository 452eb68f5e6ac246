package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/linemk/order-shop/internal/app"
	"github.com/linemk/order-shop/internal/app/handlers"
	"github.com/linemk/order-shop/internal/config"
	"github.com/linemk/order-shop/internal/jwt/jwtmiddleware"
	"github.com/linemk/order-shop/internal/lib/logger"
	"github.com/linemk/order-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/order-shop/internal/service"
	"github.com/linemk/order-shop/internal/storage"
)

func main() {
	// .env удобен при локальном запуске; в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	orderService := service.NewOrderService(application.Logger, application.DB, userRepo, productRepo, orderRepo)
	productService := service.NewProductService(application.Logger, productRepo)

	// эндпоинты для регистрации и входа
	router.Post("/api/auth/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(application.Logger, authService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)
		// каталог товаров
		r.Get("/api/products", handlers.ProductsHandler(application.Logger, productService))
		r.Post("/api/products", handlers.CreateProductHandler(application.Logger, productService))
		// покупка и история заказов
		r.Post("/api/orders", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Get("/api/orders", handlers.ListOrdersHandler(application.Logger, orderService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
