package postgres

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/wordrace/internal/game/dictionary"
	"github.com/cory-johannsen/wordrace/internal/game/match"
)

// WordRepository serves answers and guess validation from the words table.
// It implements match.Dictionary.
type WordRepository struct {
	db  *pgxpool.Pool
	src dictionary.Source
}

// NewWordRepository creates a WordRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool; src must be non-nil.
func NewWordRepository(db *pgxpool.Pool, src dictionary.Source) *WordRepository {
	return &WordRepository{db: db, src: src}
}

// Import upserts every word of wl. A word listed as an answer stays an
// answer even if a later import lists it only as allowed.
//
// Precondition: wl.Language must be non-empty.
// Postcondition: Returns the number of distinct words written.
func (r *WordRepository) Import(ctx context.Context, wl *dictionary.WordList) (int, error) {
	lang := dictionary.Normalize(wl.Language)
	if lang == "" {
		return 0, fmt.Errorf("importing word list: language must not be empty")
	}

	words := make(map[string]bool)
	for _, w := range wl.Allowed {
		if w = dictionary.Normalize(w); w != "" {
			words[w] = false
		}
	}
	for _, w := range wl.Answers {
		if w = dictionary.Normalize(w); w != "" {
			words[w] = true
		}
	}

	batch := &pgx.Batch{}
	for w, answer := range words {
		batch.Queue(`
			INSERT INTO words (language, word, length, answer)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (language, word) DO UPDATE SET answer = words.answer OR EXCLUDED.answer`,
			lang, w, utf8.RuneCountInString(w), answer,
		)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("importing %s words: %w", lang, err)
	}
	return len(words), nil
}

// SelectAnswer picks a random answer of the given rune length.
//
// Postcondition: Returns a word of exactly length runes, or an error wrapping
// dictionary.ErrUnknownLanguage or dictionary.ErrNoAnswer.
func (r *WordRepository) SelectAnswer(ctx context.Context, language string, length int) (string, error) {
	lang := dictionary.Normalize(language)
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM words WHERE language = $1 AND length = $2 AND answer`,
		lang, length,
	).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("counting %s answers: %w", lang, err)
	}
	if n == 0 {
		known, err := r.hasLanguage(ctx, lang)
		if err != nil {
			return "", err
		}
		if !known {
			return "", fmt.Errorf("%w: %q", dictionary.ErrUnknownLanguage, language)
		}
		return "", fmt.Errorf("%w: %s/%d", dictionary.ErrNoAnswer, language, length)
	}

	var word string
	err = r.db.QueryRow(ctx,
		`SELECT word FROM words WHERE language = $1 AND length = $2 AND answer ORDER BY word OFFSET $3 LIMIT 1`,
		lang, length, r.src.Intn(n),
	).Scan(&word)
	if err != nil {
		return "", fmt.Errorf("selecting %s answer: %w", lang, err)
	}
	return word, nil
}

// Exists reports whether word is an accepted guess in language.
func (r *WordRepository) Exists(ctx context.Context, language, word string) (bool, error) {
	var found bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM words WHERE language = $1 AND word = $2)`,
		dictionary.Normalize(language), dictionary.Normalize(word),
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("looking up word: %w", err)
	}
	return found, nil
}

// Languages returns the stored language codes in sorted order.
func (r *WordRepository) Languages(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT language FROM words ORDER BY language`)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}
	langs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning languages: %w", err)
	}
	return langs, nil
}

func (r *WordRepository) hasLanguage(ctx context.Context, lang string) (bool, error) {
	var found bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM words WHERE language = $1)`, lang).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("checking language %s: %w", lang, err)
	}
	return found, nil
}

var _ match.Dictionary = (*WordRepository)(nil)
