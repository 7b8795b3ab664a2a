package restapi

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WeatherClient fetches current conditions for the map risk overlay.
type WeatherClient struct {
	http   *resty.Client
	apiKey string
	logger *zap.SugaredLogger
}

// NewWeatherClient builds a client for an OpenWeather-style API.
func NewWeatherClient(baseURL, apiKey string, logger *zap.SugaredLogger) *WeatherClient {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &WeatherClient{http: http, apiKey: apiKey, logger: logger}
}

// Weather is the subset of the provider response the overlay needs.
type Weather struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Conditions []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

// Current returns conditions at a coordinate.
func (c *WeatherClient) Current(ctx context.Context, lat, lon float64) (*Weather, error) {
	var out Weather
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   formatCoord(lat),
			"lon":   formatCoord(lon),
			"appid": c.apiKey,
			"units": "metric",
		}).
		SetResult(&out).
		Get("/weather")
	if err != nil {
		return nil, &NetworkError{Op: "weather lookup", Err: err}
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
