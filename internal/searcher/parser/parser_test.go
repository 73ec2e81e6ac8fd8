package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

func TestParseTerms(t *testing.T) {
	plan, err := Parse("Distributed search NOT databases")
	require.NoError(t, err)
	assert.Equal(t, QueryAND, plan.Type)
	assert.Equal(t, []string{"distribut", "search"}, plan.Terms())
	assert.Equal(t, []string{"databas"}, plan.ExcludeTerms)
	assert.Equal(t, "AND|distribut,search|NOT:databas", plan.Canonical())
}

func TestParseOrAndStopWords(t *testing.T) {
	plan, err := Parse("the fox OR dogs")
	require.NoError(t, err)
	assert.Equal(t, QueryOR, plan.Type)
	assert.Equal(t, []string{"fox", "dog"}, plan.Terms())
}

func TestParseWindow(t *testing.T) {
	plan, err := Parse("ranking WINDOW(5,2: quick brown foxes)")
	require.NoError(t, err)
	require.Len(t, plan.Features, 2)

	w := plan.Features[1].Window
	require.NotNil(t, w)
	assert.Equal(t, 5, w.MaxWindowSize)
	assert.Equal(t, 2, w.MinCardinality)
	assert.Equal(t, "WINDOW(5,2: quick brown fox)", plan.Features[1].String())
	assert.Equal(t, map[string]string{"maxwinsize": "5", "cardinality": "2"}, w.Params())
	assert.Equal(t, []string{"rank", "quick", "brown", "fox"}, plan.Terms())
}

func TestParseNestedWindow(t *testing.T) {
	plan, err := Parse("window(10: window(2: new york) city)")
	require.NoError(t, err)
	require.Len(t, plan.Features, 1)
	outer := plan.Features[0].Window
	require.Len(t, outer.Items, 2)
	assert.Equal(t, 0, outer.MinCardinality)
	assert.Equal(t, "WINDOW(10,0: WINDOW(2,0: new york) citi)", plan.Features[0].String())
}

func TestParseWindowWithoutParenIsAWord(t *testing.T) {
	plan, err := Parse("window size")
	require.NoError(t, err)
	assert.Equal(t, []string{"window", "size"}, plan.Terms())
}

func TestParseEmpty(t *testing.T) {
	plan, err := Parse("   ")
	require.NoError(t, err)
	assert.Empty(t, plan.Features)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		query   string
		wantErr error
	}{
		{"WINDOW(0: a b)", apperrors.ErrInvalidParameter},
		{"WINDOW(-2: a b)", apperrors.ErrInvalidParameter},
		{"WINDOW(3,4: fox dog)", apperrors.ErrInvalidParameter},
		{"WINDOW(x: fox dog)", apperrors.ErrInvalidInput},
		{"WINDOW(3 fox dog)", apperrors.ErrInvalidInput},
		{"WINDOW(3: fox dog", apperrors.ErrInvalidInput},
		{"WINDOW(3: the)", apperrors.ErrInvalidInput},
		{"WINDOW(3: fox OR dog)", apperrors.ErrInvalidInput},
		{"NOT WINDOW(3: fox dog)", apperrors.ErrInvalidInput},
		{"fox )", apperrors.ErrInvalidInput},
		{"(fox) dog)", apperrors.ErrInvalidInput},
	}
	for _, tc := range tests {
		_, err := Parse(tc.query)
		assert.ErrorIs(t, err, tc.wantErr, tc.query)
	}
}

func TestParsePunctuationOutsideWindows(t *testing.T) {
	plan, err := Parse("foxes, dogs: (cats)")
	require.NoError(t, err)
	assert.Equal(t, []string{"fox", "dog", "cat"}, plan.Terms())

	plan, err = Parse("((foxes) dogs")
	require.NoError(t, err)
	assert.Equal(t, []string{"fox", "dog"}, plan.Terms())
}
