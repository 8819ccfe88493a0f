package model

// WeatherResult - нормализованный ответ, который уходит фронтенду
type WeatherResult struct {
	City        string  `json:"city"`
	Temp        float64 `json:"temp"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// ErrorResponse - единый формат ошибок API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// OpenWeatherResponse - сырой ответ OpenWeatherMap.
// Вложенные поля объявлены указателями, чтобы отличать "нет поля" от нуля:
// отсутствие name или main.temp означает неожиданную форму payload.
type OpenWeatherResponse struct {
	Name *string `json:"name"`
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}
