// Package themealdb looks recipes up in TheMealDB's public search API.
package themealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"platescan"
	"platescan/recipe"
)

const (
	defaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

	// TheMealDB meals carry at most twenty strIngredientN/strMeasureN pairs.
	maxIngredients = 20
)

type Opts struct {
	BaseURL    string
	HTTPClient platescan.HTTPClient
}

type Client struct {
	baseURL    string
	httpClient platescan.HTTPClient
}

func NewClient(opts Opts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(opts.BaseURL, "/"), httpClient: opts.HTTPClient}
}

// meal holds one search result. Values are strings or null.
type meal map[string]any

func (m meal) field(key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

type searchResponse struct {
	Meals []meal `json:"meals"`
}

// Lookup returns the first meal matching name. A search without results is platescan.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, name string) (platescan.Recipe, error) {
	endpoint := c.baseURL + "/search.php?s=" + url.QueryEscape(name)
	slog.Info("MEALDB: Searching", "name", name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return platescan.Recipe{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return platescan.Recipe{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return platescan.Recipe{}, fmt.Errorf("failed to read TheMealDB response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return platescan.Recipe{}, fmt.Errorf("TheMealDB returned %s", resp.Status)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return platescan.Recipe{}, fmt.Errorf("%w: TheMealDB response: %w", platescan.ErrMalformedOutput, err)
	}
	if len(sr.Meals) == 0 {
		slog.Info("MEALDB: No meal found", "name", name)
		return platescan.Recipe{}, platescan.ErrNotFound
	}

	r := toRecipe(sr.Meals[0])
	slog.Info("MEALDB: Found meal", "name", name, "title", r.Title, "ingredients", len(r.Ingredients), "steps", len(r.Steps))
	return r, nil
}

func toRecipe(m meal) platescan.Recipe {
	r := platescan.Recipe{
		Title: m.field("strMeal"),
		Steps: recipe.SplitSteps(m.field("strInstructions")),
	}

	for i := 1; i <= maxIngredients; i++ {
		n := strconv.Itoa(i)
		name := m.field("strIngredient" + n)
		if name == "" {
			continue
		}
		qty, unit := recipe.ParseMeasure(m.field("strMeasure" + n))
		r.Ingredients = append(r.Ingredients, platescan.Ingredient{Name: name, Quantity: qty, Unit: unit})
	}
	return r
}
