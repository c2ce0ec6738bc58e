package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"platescan"
	"platescan/storage"
)

// Table is an in-memory nutrition database keyed by lowercase food name.
// It is read-only after construction, so one Table can serve concurrent runs.
type Table struct {
	entries map[string]platescan.NutritionFacts
}

func NewTable(entries map[string]platescan.NutritionFacts) *Table {
	t := &Table{entries: make(map[string]platescan.NutritionFacts, len(entries))}
	for name, facts := range entries {
		if facts.BasisGrams == 0 {
			facts.BasisGrams = 100
		}
		t.entries[key(name)] = facts
	}
	return t
}

// Builtin returns a small table of common foods, values per 100 g.
func Builtin() *Table {
	per100 := func(kcal, protein, carbs, fat float64) platescan.NutritionFacts {
		return platescan.NutritionFacts{CaloriesKcal: kcal, ProteinG: protein, CarbsG: carbs, FatG: fat, BasisGrams: 100}
	}
	return NewTable(map[string]platescan.NutritionFacts{
		"chicken": per100(165, 31, 0, 3.6),
		"rice":    per100(130, 2.7, 28, 0.3),
		"apple":   per100(52, 0.3, 14, 0.2),
		"banana":  per100(89, 1.1, 23, 0.3),
		"bread":   per100(265, 9, 49, 3.2),
		"egg":     per100(155, 13, 1.1, 11),
		"pasta":   per100(131, 5, 25, 1.1),
		"potato":  per100(77, 2, 17, 0.1),
	})
}

// LoadTable reads a JSON object of {"name": {calories_kcal, protein_g, carbs_g, fat_g, basis_grams}} from obj.
func LoadTable(ctx context.Context, obj storage.Object) (*Table, error) {
	data, err := obj.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load nutrition table: %w", err)
	}

	var entries map[string]platescan.NutritionFacts
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode nutrition table: %w", err)
	}

	slog.Info("NUTRITION_DB: Table loaded", "entries", len(entries))
	return NewTable(entries), nil
}

func (t *Table) Lookup(ctx context.Context, name string) (platescan.NutritionFacts, error) {
	facts, ok := t.entries[key(name)]
	if !ok {
		return platescan.NutritionFacts{}, platescan.ErrNotFound
	}
	return facts, nil
}

// Entries returns a copy of the table, sorted by name, for seeding other stores.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for name, facts := range t.entries {
		out = append(out, Entry{Name: name, Facts: facts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type Entry struct {
	Name  string
	Facts platescan.NutritionFacts
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
