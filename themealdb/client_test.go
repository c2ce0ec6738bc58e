package themealdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"platescan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arrabiata = `{"meals":[{
	"idMeal":"52771",
	"strMeal":"Spicy Arrabiata Penne",
	"strInstructions":"Bring a large pot of water to a boil.\r\nAdd penne and cook.\r\nServe with parmigiano.",
	"strIngredient1":"penne rigate","strMeasure1":"1 pound",
	"strIngredient2":"olive oil","strMeasure2":"1/4 cup",
	"strIngredient3":"garlic","strMeasure3":"3 cloves",
	"strIngredient4":"red chile flakes","strMeasure4":"1/2 teaspoon",
	"strIngredient5":"Parmigiano-Reggiano","strMeasure5":"spinkling",
	"strIngredient6":"","strMeasure6":"",
	"strIngredient7":null,"strMeasure7":null
}]}`

func TestLookup(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.php", r.URL.Path)
		query = r.URL.Query().Get("s")
		_, _ = w.Write([]byte(arrabiata))
	}))
	defer srv.Close()

	c := NewClient(Opts{BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	got, err := c.Lookup(context.Background(), "arrabiata penne")
	require.NoError(t, err)

	assert.Equal(t, "arrabiata penne", query)
	assert.Equal(t, "Spicy Arrabiata Penne", got.Title)
	assert.Equal(t, []platescan.Ingredient{
		{Name: "penne rigate", Quantity: 1, Unit: "lb"},
		{Name: "olive oil", Quantity: 0.25, Unit: "cup"},
		{Name: "garlic", Quantity: 3, Unit: "clove"},
		{Name: "red chile flakes", Quantity: 0.5, Unit: "tsp"},
		{Name: "Parmigiano-Reggiano", Quantity: 0, Unit: "spinkling"},
	}, got.Ingredients)
	assert.Equal(t, []string{
		"Bring a large pot of water to a boil.",
		"Add penne and cook.",
		"Serve with parmigiano.",
	}, got.Steps)
	assert.True(t, got.IsValid())
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meals":null}`))
	}))
	defer srv.Close()

	_, err := NewClient(Opts{BaseURL: srv.URL, HTTPClient: srv.Client()}).Lookup(context.Background(), "blob")
	assert.True(t, errors.Is(err, platescan.ErrNotFound))
}

func TestLookupFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{name: "server error", status: http.StatusBadGateway, body: "bad gateway"},
		{name: "html page", status: http.StatusOK, body: "<html></html>", malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Opts{BaseURL: srv.URL, HTTPClient: srv.Client()}).Lookup(context.Background(), "pizza")
			require.Error(t, err)
			assert.False(t, errors.Is(err, platescan.ErrNotFound))
			assert.Equal(t, tt.malformed, errors.Is(err, platescan.ErrMalformedOutput))
		})
	}
}
