package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"agentloop/pkg/restclient"
)

// ToolGetWeather is the constant name for the weather tool.
const ToolGetWeather = "get_weather"

// DefaultForecastURL is the Open-Meteo current weather endpoint.
const DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

// weatherCodes maps WMO weather interpretation codes to friendly descriptions.
//
//nolint:gochecknoglobals // static lookup table
var weatherCodes = map[int]string{
	0: "Clear sky", 1: "Mainly clear",
	2: "Partly cloudy", 3: "Overcast",
	45: "Fog", 48: "Depositing rime fog",
	51: "Light drizzle", 53: "Moderate drizzle",
	55: "Dense drizzle", 56: "Light freezing drizzle",
	57: "Dense freezing drizzle", 61: "Slight rain",
	63: "Moderate rain", 65: "Heavy rain",
	66: "Light freezing rain", 67: "Heavy freezing rain",
	71: "Slight snow fall", 73: "Moderate snow fall",
	75: "Heavy snow fall", 77: "Snow grains",
	80: "Slight rain showers", 81: "Moderate rain showers",
	82: "Violent rain showers", 85: "Slight snow showers",
	86: "Heavy snow showers", 95: "Thunderstorm",
	96: "Thunderstorm with slight hail", 99: "Thunderstorm with heavy hail",
}

// WeatherCondition returns the friendly description for a WMO weathercode.
// Codes outside the published table return "Unknown".
func WeatherCondition(code int) string {
	if desc, ok := weatherCodes[code]; ok {
		return desc
	}
	return "Unknown"
}

// WeatherTool fetches current weather conditions from Open-Meteo.
type WeatherTool struct {
	client  *restclient.Client
	baseURL string
}

// NewWeatherTool creates a weather tool backed by the given client.
func NewWeatherTool(client *restclient.Client) *WeatherTool {
	return &WeatherTool{client: client, baseURL: DefaultForecastURL}
}

// SetBaseURL points the tool at a different forecast endpoint.
func (t *WeatherTool) SetBaseURL(baseURL string) {
	t.baseURL = baseURL
}

// Name returns the tool name.
func (t *WeatherTool) Name() string {
	return ToolGetWeather
}

// PromptDocumentation returns formatted tool documentation for prompts.
func (t *WeatherTool) PromptDocumentation() string {
	return `- get_weather: current weather at coordinates. Args: {"lat": <number>, "lon": <number>}. Returns temperature (Celsius), WMO code, and conditions.`
}

// weatherBody is the slice of the forecast response we care about.
type weatherBody struct {
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Exec fetches the current weather for the given coordinates.
func (t *WeatherTool) Exec(ctx context.Context, args map[string]any) restclient.Outcome[Result] {
	lat, ok := floatArg(args, "lat")
	if !ok {
		return badArgs("get_weather: lat is required and must be a number")
	}
	lon, ok := floatArg(args, "lon")
	if !ok {
		return badArgs("get_weather: lon is required and must be a number")
	}

	req := restclient.Request{
		URL: t.baseURL,
		Query: url.Values{
			"latitude":        {strconv.FormatFloat(lat, 'f', -1, 64)},
			"longitude":       {strconv.FormatFloat(lon, 'f', -1, 64)},
			"current_weather": {"true"},
		},
	}

	return restclient.Call(ctx, t.client, req, func(body []byte) (Result, error) {
		var decoded weatherBody
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, err
		}
		if decoded.CurrentWeather == nil {
			return nil, fmt.Errorf("missing current_weather key")
		}
		cw := decoded.CurrentWeather
		return Result{
			"temperature": cw.Temperature,
			"code":        cw.WeatherCode,
			"conditions":  WeatherCondition(cw.WeatherCode),
		}, nil
	})
}
