package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"agentloop/pkg/restclient"
)

// ToolConvertCurrency is the constant name for the currency conversion tool.
const ToolConvertCurrency = "convert_currency"

// Rate endpoints for the fawazahmed0 exchange API. The CDN host is primary;
// the pages.dev mirror is the fallback when the CDN fails.
const (
	DefaultCurrencyPrimaryURL  = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies"
	DefaultCurrencyFallbackURL = "https://latest.currency-api.pages.dev/v1/currencies"
)

// CurrencyTool converts an amount between currencies using live rates.
type CurrencyTool struct {
	client    *restclient.Client
	endpoints []string
}

// NewCurrencyTool creates a currency tool backed by the given client.
func NewCurrencyTool(client *restclient.Client) *CurrencyTool {
	return &CurrencyTool{
		client:    client,
		endpoints: []string{DefaultCurrencyPrimaryURL, DefaultCurrencyFallbackURL},
	}
}

// SetEndpoints replaces the rate endpoints, in priority order.
func (t *CurrencyTool) SetEndpoints(endpoints ...string) {
	t.endpoints = endpoints
}

// Name returns the tool name.
func (t *CurrencyTool) Name() string {
	return ToolConvertCurrency
}

// PromptDocumentation returns formatted tool documentation for prompts.
func (t *CurrencyTool) PromptDocumentation() string {
	return `- convert_currency: convert an amount between currencies. Args: {"amount": <number>, "from": <string>, "to": <string>} with 3-letter codes like "USD". Returns the converted amount and rate.`
}

// Exec converts the requested amount. Each endpoint gets the full retry
// treatment before the next one is tried.
func (t *CurrencyTool) Exec(ctx context.Context, args map[string]any) restclient.Outcome[Result] {
	amount, ok := floatArg(args, "amount")
	if !ok {
		return badArgs("convert_currency: amount is required and must be a number")
	}
	from, ok := stringArg(args, "from")
	if !ok {
		return badArgs("convert_currency: from is required and must be a currency code")
	}
	to, ok := stringArg(args, "to")
	if !ok {
		return badArgs("convert_currency: to is required and must be a currency code")
	}

	base := strings.ToLower(from)
	target := strings.ToLower(to)

	var last restclient.Outcome[float64]
	for _, endpoint := range t.endpoints {
		req := restclient.Request{URL: fmt.Sprintf("%s/%s.json", endpoint, base)}
		last = restclient.Call(ctx, t.client, req, func(body []byte) (float64, error) {
			var decoded map[string]any
			if err := json.Unmarshal(body, &decoded); err != nil {
				return 0, err
			}
			rates, ok := decoded[base].(map[string]any)
			if !ok {
				return 0, fmt.Errorf("missing rate table for %s", base)
			}
			rate, ok := rates[target].(float64)
			if !ok {
				return 0, fmt.Errorf("no rate from %s to %s", base, target)
			}
			return rate, nil
		})
		if last.OK {
			return restclient.Success(Result{
				"amount":    amount,
				"from":      strings.ToUpper(from),
				"to":        strings.ToUpper(to),
				"rate":      last.Value,
				"converted": amount * last.Value,
			})
		}
	}

	return restclient.Failure[Result](last.Kind, last.StatusCode,
		fmt.Sprintf("failed to fetch rate from %s to %s (last error: %s)", strings.ToUpper(from), strings.ToUpper(to), last.Message))
}
