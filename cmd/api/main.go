package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/gometeo/weather-proxy/internal/api/handlers"
	"github.com/gometeo/weather-proxy/internal/cache"
	"github.com/gometeo/weather-proxy/internal/config"
	"github.com/gometeo/weather-proxy/internal/weather"
)

func main() {
	// Загрузка конфигурации
	cfg := config.Load()

	// Настройка логирования
	logger := setupLogger(cfg.LogLevel)
	logger.Info("Запуск Weather Proxy сервиса...")
	logger.Info("Конфигурация загружена",
		"port", cfg.HTTPPort,
		"upstream", cfg.BaseURL,
		"units", cfg.Units,
		"lang", cfg.Lang,
		"timeout", cfg.UpstreamTimeout,
		"cache_enabled", cfg.CacheEnabled())

	if cfg.APIKey == "" {
		// Не падаем: эндпоинт погоды будет отвечать 500, health остается живым
		logger.Warn("OPENWEATHER_API_KEY не задан, запросы погоды будут завершаться ошибкой")
	}

	// 1. Подключение к Redis (опционально)
	var resultCache handlers.ResultCache
	if cfg.CacheEnabled() {
		weatherCache, err := cache.New(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			cfg.CacheTTL,
			logger,
		)
		if err != nil {
			logger.Error("Не удалось подключиться к Redis", "error", err)
			os.Exit(1)
		}
		defer weatherCache.Close()
		resultCache = weatherCache
	} else {
		logger.Info("Кэш выключен: REDIS_ADDR не задан")
	}

	// 2. Клиент поставщика погоды
	provider := weather.NewOpenWeatherClient(
		cfg.BaseURL,
		cfg.APIKey,
		cfg.Units,
		cfg.Lang,
		&http.Client{},
		logger,
	)

	// 3. Настройка маршрутизатора
	router := mux.NewRouter()
	weatherHandler := handlers.NewWeatherHandler(provider, resultCache, cfg.UpstreamTimeout, logger)

	// API маршруты
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/weather", weatherHandler.GetWeather).Methods("GET")
	api.HandleFunc("/health", weatherHandler.HealthCheck).Methods("GET")

	// Middleware
	router.Use(loggingMiddleware(logger))
	router.Use(contentTypeMiddleware)

	// Разрешающий CORS для фронтенда
	corsRouter := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{"GET", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
	)(router)

	// 4. Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      corsRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Сервер запущен", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Ошибка сервера", "error", err)
		}
	}()

	// Ожидание сигнала завершения
	<-stopChan
	logger.Info("Получен сигнал завершения...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Ошибка при остановке сервера", "error", err)
	} else {
		logger.Info("Сервер остановлен")
	}
}

func setupLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)

	// Для продакшена используем JSON формат
	if os.Getenv("ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware для логирования
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Создаем ResponseWriter для отслеживания статуса
			rw := &responseWriter{ResponseWriter: w, status: 200}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			logger.Info("HTTP запрос",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"duration_ms", duration.Milliseconds(),
				"user_agent", r.UserAgent(),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Кастомный ResponseWriter для отслеживания статуса
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware для установки Content-Type
func contentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
