package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gometeo/weather-proxy/internal/model"
)

// Ошибки, по которым хендлер выбирает HTTP-статус
var (
	ErrNotConfigured   = errors.New("не задан API-ключ поставщика погоды")
	ErrCityNotFound    = errors.New("город не найден у поставщика")
	ErrUpstream        = errors.New("поставщик погоды вернул ошибку")
	ErrUpstreamTimeout = errors.New("поставщик погоды не ответил вовремя")
	ErrBadPayload      = errors.New("неожиданная форма ответа поставщика")
)

// Provider - источник текущей погоды по названию города.
// Интерфейс нужен, чтобы в тестах подставлять фейковый upstream.
type Provider interface {
	CurrentByCity(ctx context.Context, city string) (*model.WeatherResult, error)
}

// OpenWeatherClient ходит в OpenWeatherMap.
type OpenWeatherClient struct {
	baseURL    string
	apiKey     string
	units      string
	lang       string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenWeatherClient(baseURL, apiKey, units, lang string, httpClient *http.Client, logger *slog.Logger) *OpenWeatherClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenWeatherClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		units:      units,
		lang:       lang,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CurrentByCity запрашивает текущую погоду и приводит ответ к model.WeatherResult.
// Ключ проверяется до любого исходящего вызова.
func (c *OpenWeatherClient) CurrentByCity(ctx context.Context, city string) (*model.WeatherResult, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.apiKey)
	query.Set("units", c.units)
	query.Set("lang", c.lang)
	reqURL := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrUpstreamTimeout, city)
		}
		return nil, fmt.Errorf("ошибка вызова поставщика: %w", err)
	}
	defer resp.Body.Close()

	// Тело читаем целиком до разбора: при сбое логируем весь payload
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа поставщика: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Warn("Город не найден у поставщика", "city", city, "body", string(body))
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Поставщик вернул ошибку",
			"city", city,
			"status", resp.StatusCode,
			"body", string(body))
		return nil, fmt.Errorf("%w: статус %d", ErrUpstream, resp.StatusCode)
	}

	var raw model.OpenWeatherResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Error("Битый JSON от поставщика", "city", city, "body", string(body), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	result, err := normalize(raw)
	if err != nil {
		c.logger.Error("Неожиданная форма ответа", "city", city, "body", string(body), "error", err)
		return nil, err
	}
	return result, nil
}

// normalize сводит сырой ответ к плоской структуре.
// Правила по умолчанию применяются один раз здесь, а не в местах чтения полей.
func normalize(raw model.OpenWeatherResponse) (*model.WeatherResult, error) {
	if raw.Name == nil || raw.Main == nil || raw.Main.Temp == nil {
		return nil, fmt.Errorf("%w: нет name или main.temp", ErrBadPayload)
	}

	result := &model.WeatherResult{
		City:        *raw.Name,
		Temp:        *raw.Main.Temp,
		Description: "N/A",
		Icon:        "N/A",
	}
	if len(raw.Weather) > 0 {
		if raw.Weather[0].Description != "" {
			result.Description = raw.Weather[0].Description
		}
		if raw.Weather[0].Icon != "" {
			result.Icon = raw.Weather[0].Icon
		}
	}
	return result, nil
}
