package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"agentloop/pkg/restclient"
)

// ToolGeocodeLocation is the constant name for the geocoding tool.
const ToolGeocodeLocation = "geocode_location"

// DefaultGeocodingURL is the Open-Meteo geocoding search endpoint.
const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// GeocodeTool resolves a place name to coordinates using Open-Meteo's
// geocoding API. An empty result set is a graceful error value, not a
// failed call.
type GeocodeTool struct {
	client  *restclient.Client
	baseURL string
}

// NewGeocodeTool creates a geocoding tool backed by the given client.
func NewGeocodeTool(client *restclient.Client) *GeocodeTool {
	return &GeocodeTool{client: client, baseURL: DefaultGeocodingURL}
}

// SetBaseURL points the tool at a different geocoding endpoint.
func (t *GeocodeTool) SetBaseURL(baseURL string) {
	t.baseURL = baseURL
}

// Name returns the tool name.
func (t *GeocodeTool) Name() string {
	return ToolGeocodeLocation
}

// PromptDocumentation returns formatted tool documentation for prompts.
func (t *GeocodeTool) PromptDocumentation() string {
	return `- geocode_location: resolve a place name to coordinates. Args: {"name": <string>}. Returns latitude, longitude, and the matched name.`
}

type geocodeBody struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name"`
	} `json:"results"`
}

// Exec resolves the named location to coordinates.
func (t *GeocodeTool) Exec(ctx context.Context, args map[string]any) restclient.Outcome[Result] {
	name, ok := stringArg(args, "name")
	if !ok {
		return badArgs("geocode_location: name is required and must be a non-empty string")
	}

	req := restclient.Request{
		URL: t.baseURL,
		Query: url.Values{
			"name":  {name},
			"count": {"1"},
		},
	}

	return restclient.Call(ctx, t.client, req, func(body []byte) (Result, error) {
		var decoded geocodeBody
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, err
		}
		if len(decoded.Results) == 0 {
			// No match is not a transport failure.
			return Result{
				"error": fmt.Sprintf("No location found for '%s'. Try a different search term.", name),
			}, nil
		}
		hit := decoded.Results[0]
		matched := hit.Name
		if matched == "" {
			matched = name
		}
		return Result{
			"latitude":  hit.Latitude,
			"longitude": hit.Longitude,
			"name":      matched,
		}, nil
	})
}
