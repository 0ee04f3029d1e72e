package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/wordrace/internal/game/dictionary"
	"github.com/cory-johannsen/wordrace/internal/storage/postgres"
	"github.com/cory-johannsen/wordrace/internal/testutil"
)

type fixedSource struct{ n int }

func (f fixedSource) Intn(n int) int { return f.n % n }

func setupWords(t *testing.T, src dictionary.Source) *postgres.WordRepository {
	t.Helper()
	repo := postgres.NewWordRepository(testutil.NewPool(t), src)
	_, err := repo.Import(context.Background(), &dictionary.WordList{
		Language: "EN",
		Answers:  []string{"Crane", "slate", "word"},
		Allowed:  []string{"racks", "crane"},
	})
	require.NoError(t, err)
	return repo
}

func TestWordRepository_Import(t *testing.T) {
	repo := postgres.NewWordRepository(testutil.NewPool(t), fixedSource{})
	n, err := repo.Import(context.Background(), &dictionary.WordList{
		Language: "en",
		Answers:  []string{"crane", " CRANE "},
		Allowed:  []string{"racks", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.Import(context.Background(), &dictionary.WordList{Answers: []string{"crane"}})
	assert.Error(t, err)
}

func TestWordRepository_SelectAnswer(t *testing.T) {
	ctx := context.Background()
	first := setupWords(t, fixedSource{n: 0})
	got, err := first.SelectAnswer(ctx, "en", 5)
	require.NoError(t, err)
	assert.Equal(t, "crane", got)

	second := postgres.NewWordRepository(testutil.NewPool(t), fixedSource{n: 1})
	_, err = second.Import(ctx, &dictionary.WordList{Language: "en", Answers: []string{"crane", "slate"}})
	require.NoError(t, err)
	got, err = second.SelectAnswer(ctx, "en", 5)
	require.NoError(t, err)
	assert.Equal(t, "slate", got)

	got, err = second.SelectAnswer(ctx, "EN", 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestWordRepository_SelectAnswerErrors(t *testing.T) {
	repo := setupWords(t, fixedSource{})
	ctx := context.Background()

	_, err := repo.SelectAnswer(ctx, "en", 7)
	assert.ErrorIs(t, err, dictionary.ErrNoAnswer)
	_, err = repo.SelectAnswer(ctx, "fr", 5)
	assert.ErrorIs(t, err, dictionary.ErrUnknownLanguage)
}

func TestWordRepository_AllowedNeverBecomesAnswer(t *testing.T) {
	repo := setupWords(t, fixedSource{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		got, err := repo.SelectAnswer(ctx, "en", 5)
		require.NoError(t, err)
		assert.NotEqual(t, "racks", got)
	}
}

func TestWordRepository_Exists(t *testing.T) {
	repo := setupWords(t, fixedSource{})
	ctx := context.Background()

	for _, w := range []string{"crane", "RACKS", " word "} {
		ok, err := repo.Exists(ctx, "en", w)
		require.NoError(t, err)
		assert.True(t, ok, w)
	}
	ok, err := repo.Exists(ctx, "en", "zzzzz")
	require.NoError(t, err)
	assert.False(t, ok)

	langs, err := repo.Languages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, langs)
}
