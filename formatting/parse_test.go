package formatting_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"platescan/formatting"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type macros struct {
	Calories float64 `json:"calories_kcal"`
	Protein  float64 `json:"protein_g"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    macros
		wantErr bool
	}{
		{
			name:    "bare json",
			content: `{"calories_kcal": 52, "protein_g": 0.3}`,
			want:    macros{Calories: 52, Protein: 0.3},
		},
		{
			name:    "fenced json",
			content: "Here you go:\n```json\n{\"calories_kcal\": 89, \"protein_g\": 1.1}\n```",
			want:    macros{Calories: 89, Protein: 1.1},
		},
		{
			name:    "fence without language",
			content: "```\n{\"calories_kcal\": 130}\n```",
			want:    macros{Calories: 130},
		},
		{
			name:    "json surrounded by prose",
			content: `Sure! {"calories_kcal": 77, "protein_g": 2} Let me know if you need more.`,
			want:    macros{Calories: 77, Protein: 2},
		},
		{
			name:    "no json",
			content: "Calories: 52",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.Parse[macros](tt.content)
			if tt.wantErr {
				must.Error(t, err)
				should.ErrorIs(t, err, formatting.ErrParseFailed)
				return
			}
			must.NoError(t, err)
			should.Equal(t, tt.want, got)
		})
	}
}

func TestParseTruncatesLongContentInError(t *testing.T) {
	_, err := formatting.Parse[macros](strings.Repeat("x", 500))
	must.Error(t, err)
	should.Less(t, len(err.Error()), 300)
}

func TestParseErrorKeepsRunesWhole(t *testing.T) {
	_, err := formatting.Parse[macros]("a" + strings.Repeat("é", 300))
	must.Error(t, err)
	should.True(t, utf8.ValidString(err.Error()))
	should.True(t, strings.HasSuffix(err.Error(), "é..."))
}
