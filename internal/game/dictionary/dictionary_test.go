package dictionary

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

type fixedSource int

func (f fixedSource) Intn(n int) int { return int(f) % n }

func testLists() []*WordList {
	return []*WordList{
		{Language: "en", Answers: []string{"crane", "slate", "Plant", "bird"}, Allowed: []string{"xylyl"}},
		{Language: "tr", Answers: []string{"çiçek"}},
	}
}

func newTestDictionary(t *testing.T) *Dictionary {
	t.Helper()
	d, err := New(testLists(), fixedSource(0), zap.NewNop())
	require.NoError(t, err)
	return d
}

func TestNew_Empty(t *testing.T) {
	_, err := New(nil, fixedSource(0), zap.NewNop())
	assert.Error(t, err)
}

func TestSelectAnswer(t *testing.T) {
	d := newTestDictionary(t)
	w, err := d.SelectAnswer(context.Background(), "en", 5)
	require.NoError(t, err)
	assert.Equal(t, "crane", w)

	w, err = d.SelectAnswer(context.Background(), "EN", 4)
	require.NoError(t, err)
	assert.Equal(t, "bird", w)
}

func TestSelectAnswer_Unicode(t *testing.T) {
	d := newTestDictionary(t)
	w, err := d.SelectAnswer(context.Background(), "tr", 5)
	require.NoError(t, err)
	assert.Equal(t, "çiçek", w)
}

func TestSelectAnswer_Errors(t *testing.T) {
	d := newTestDictionary(t)
	_, err := d.SelectAnswer(context.Background(), "fr", 5)
	assert.ErrorIs(t, err, ErrUnknownLanguage)

	_, err = d.SelectAnswer(context.Background(), "en", 7)
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestExists(t *testing.T) {
	d := newTestDictionary(t)
	ctx := context.Background()

	for _, w := range []string{"crane", "PLANT", "xylyl"} {
		ok, err := d.Exists(ctx, "en", w)
		require.NoError(t, err)
		assert.True(t, ok, w)
	}
	ok, err := d.Exists(ctx, "en", "zzzzz")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = d.Exists(ctx, "fr", "crane")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte(`
language: en
answers: [crane, slate]
allowed: [xylyl]
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0644))

	lists, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "en", lists[0].Language)
	assert.Equal(t, []string{"crane", "slate"}, lists[0].Answers)
}

func TestLoadDir_MissingLanguage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.yaml"), []byte("answers: [crane]\n"), 0644))
	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestLanguages(t *testing.T) {
	assert.Equal(t, []string{"en", "tr"}, newTestDictionary(t).Languages())
}

func TestPropertySelectedAnswerMatchesLengthAndExists(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{3,7}`), 1, 30).Draw(t, "words")
		seed := rapid.IntRange(0, 1000).Draw(t, "seed")
		d, err := New([]*WordList{{Language: "en", Answers: words}}, fixedSource(seed), zap.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		length := utf8.RuneCountInString(words[0])
		w, err := d.SelectAnswer(context.Background(), "en", length)
		if err != nil {
			t.Fatal(err)
		}
		if utf8.RuneCountInString(w) != length {
			t.Fatalf("answer %q has wrong length, want %d", w, length)
		}
		ok, _ := d.Exists(context.Background(), "en", w)
		if !ok {
			t.Fatalf("answer %q not accepted as guess", w)
		}
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "crane", Normalize("  CRANE\n"))
	assert.Equal(t, "çiçek", Normalize("Çiçek"))
	assert.Equal(t, "", Normalize("   "))
}

func TestPropertyNormalizeIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.StringMatching(`[ \tA-Za-zÇçĞğÖöŞşÜüÑñ]{0,12}`).Draw(t, "word")
		once := Normalize(w)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize(%q) = %q, then %q", w, once, twice)
		}
	})
}

func TestCryptoSourceRange(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 100; i++ {
		v := src.Intn(3)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 3)
	}
}
