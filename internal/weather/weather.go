// Package weather is a minimal OpenWeather current-conditions client for
// the /weather command.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// ErrCityNotFound is returned when OpenWeather does not know the city.
var ErrCityNotFound = errors.New("city not found")

// Conditions is the subset of the OpenWeather response the bot shows.
type Conditions struct {
	City        string
	TempC       float64
	Description string
}

// Client calls the OpenWeather API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Current fetches current conditions for a city, metric units, Romanian
// descriptions.
func (c *Client) Current(ctx context.Context, city string) (Conditions, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "ro")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Conditions{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Conditions{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}
	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather request: status %d", resp.StatusCode)
	}

	var body struct {
		Name string `json:"name"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Conditions{}, fmt.Errorf("weather decode: %w", err)
	}

	cond := Conditions{City: body.Name, TempC: body.Main.Temp}
	if len(body.Weather) > 0 {
		cond.Description = body.Weather[0].Description
	}
	if cond.City == "" {
		cond.City = city
	}
	return cond, nil
}
