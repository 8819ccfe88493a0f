package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gometeo/weather-proxy/internal/cache"
	"github.com/gometeo/weather-proxy/internal/model"
	"github.com/gometeo/weather-proxy/internal/weather"
)

// ResultCache - кэш нормализованных результатов; *cache.WeatherCache ему удовлетворяет
type ResultCache interface {
	Get(ctx context.Context, key string) (*model.WeatherResult, error)
	Set(ctx context.Context, key string, data model.WeatherResult) error
}

type WeatherHandler struct {
	provider weather.Provider
	cache    ResultCache // nil, если REDIS_ADDR не задан
	timeout  time.Duration
	logger   *slog.Logger
}

func NewWeatherHandler(provider weather.Provider, cache ResultCache, timeout time.Duration, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{
		provider: provider,
		cache:    cache,
		timeout:  timeout,
		logger:   logger,
	}
}

// GetWeather возвращает текущую погоду для города из query-параметра city
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	city := strings.TrimSpace(r.URL.Query().Get("city"))

	if city == "" {
		sendError(w, http.StatusBadRequest, "Параметр city обязателен", "укажите ?city=<название>")
		return
	}

	h.logger.Info("Запрос погоды", "city", city, "method", r.Method)

	// 1. Пробуем получить из кэша
	ctx := r.Context()
	if h.cache != nil {
		cached, err := h.cache.Get(ctx, cache.CityKey(city))
		if err != nil {
			h.logger.Error("Ошибка чтения из кэша", "city", city, "error", err)
			// Продолжаем - кэш не критичен
		}
		if cached != nil {
			sendJSON(w, http.StatusOK, cached)
			h.logger.Info("Данные отданы из кэша",
				"city", city,
				"duration_ms", time.Since(start).Milliseconds(),
				"source", "cache")
			return
		}
	}

	// 2. Идем к поставщику с дедлайном; отмена клиента тоже отменяет вызов
	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	result, err := h.provider.CurrentByCity(callCtx, city)
	if err != nil {
		h.respondProviderError(w, city, err)
		return
	}

	// 3. Сохраняем в кэш для будущих запросов
	if h.cache != nil {
		if err := h.cache.Set(ctx, cache.CityKey(city), *result); err != nil {
			h.logger.Warn("Не удалось сохранить в кэш", "city", city, "error", err)
		}
	}

	sendJSON(w, http.StatusOK, result)

	h.logger.Info("Данные отданы от поставщика",
		"city", city,
		"duration_ms", time.Since(start).Milliseconds(),
		"source", "upstream")
}

// respondProviderError переводит ошибки поставщика в HTTP-статусы.
// Клиенту уходит только общий текст, детали остаются в логах.
func (h *WeatherHandler) respondProviderError(w http.ResponseWriter, city string, err error) {
	switch {
	case errors.Is(err, weather.ErrNotConfigured):
		h.logger.Error("Сервис запущен без API-ключа", "city", city)
		sendError(w, http.StatusInternalServerError, "Сервис не настроен", "")
	case errors.Is(err, weather.ErrCityNotFound):
		sendError(w, http.StatusNotFound, "Город не найден", "")
	case errors.Is(err, weather.ErrUpstreamTimeout):
		h.logger.Error("Таймаут поставщика", "city", city, "error", err)
		sendError(w, http.StatusGatewayTimeout, "Поставщик погоды не ответил вовремя", "")
	case errors.Is(err, weather.ErrUpstream):
		sendError(w, http.StatusInternalServerError, "Ошибка поставщика погоды", "")
	default:
		// Сюда попадают битый JSON, неожиданная форма payload и сетевые сбои
		h.logger.Error("Внутренняя ошибка при запросе погоды", "city", city, "error", err)
		sendError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера", "")
	}
}

// HealthCheck - статичный ответ живости процесса
func (h *WeatherHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Вспомогательные функции
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, errorMsg, details string) {
	response := model.ErrorResponse{
		Error:   errorMsg,
		Message: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
