package deckimport

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/heartmarshall/myenglish-session/internal/adapter/memory"
	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// ---------------------------------------------------------------------------
// Readers
// ---------------------------------------------------------------------------

func TestReadDelimited(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		comma      rune
		skipHeader bool
		want       []Row
	}{
		{
			name:  "csv",
			input: "cat,кот\n dog , собака \n",
			comma: ',',
			want:  []Row{{1, "cat", "кот"}, {2, "dog", "собака"}},
		},
		{
			name:       "header and extra columns",
			input:      "front,back,notes\nhouse,дом,noun\n",
			comma:      ',',
			skipHeader: true,
			want:       []Row{{2, "house", "дом"}},
		},
		{
			name:  "tsv with missing back",
			input: "a\tb\nlonely\n",
			comma: '\t',
			want:  []Row{{1, "a", "b"}, {2, "lonely", ""}},
		},
		{
			name:  "quoted comma",
			input: "\"well, well\",ну-ну\n",
			comma: ',',
			want:  []Row{{1, "well, well", "ну-ну"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ReadDelimited(strings.NewReader(tt.input), tt.comma, tt.skipHeader)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "deck.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadFile_XLSX(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Front", "Back"},
		{"apple", "яблоко"},
		{"pear", "груша"},
	})

	rows, err := ReadFile(path, Options{SkipHeader: true})
	require.NoError(t, err)
	assert.Equal(t, []Row{{2, "apple", "яблоко"}, {3, "pear", "груша"}}, rows)
}

func TestReadFile_XLSXNamedSheet(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "Verbs", [][]any{{"run", "бежать"}})

	rows, err := ReadFile(path, Options{Sheet: "Verbs"})
	require.NoError(t, err)
	assert.Equal(t, []Row{{1, "run", "бежать"}}, rows)

	_, err = ReadFile(path, Options{Sheet: "Nouns"})
	assert.Error(t, err)
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deck.json")
	require.NoError(t, writeFile(path, "{}"))

	_, err := ReadFile(path, Options{})
	assert.ErrorContains(t, err, "unsupported file type")
}

// ---------------------------------------------------------------------------
// Importer
// ---------------------------------------------------------------------------

type bulkStore struct {
	*memory.DeckStore
	batches int
}

func (b *bulkStore) CreateCards(ctx context.Context, cards []domain.Card) (int, error) {
	b.batches++
	for _, c := range cards {
		if _, err := b.CreateCard(ctx, c); err != nil {
			return 0, err
		}
	}
	return len(cards), nil
}

type failingStore struct{ *memory.DeckStore }

func (failingStore) CreateCard(context.Context, domain.Card) (domain.Card, error) {
	return domain.Card{}, errors.New("disk full")
}

func newImporter(deck deckStore) *Importer {
	return NewImporter(deck, clockwork.NewFakeClock(), slog.New(slog.DiscardHandler))
}

func TestImport_SkipsDuplicatesAndBlanks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deck := memory.NewDeckStore()
	deckID := uuid.New()

	_, err := deck.CreateCard(ctx, domain.Card{ID: uuid.New(), DeckID: deckID, FrontText: "Cat", BackText: "кот"})
	require.NoError(t, err)

	rows := []Row{
		{1, "cat ", "КОТ"},   // already in the deck
		{2, "dog", "собака"}, // new
		{3, "", ""},          // blank
		{4, "DOG", "собака"}, // repeated in the file
		{5, "bird", ""},      // back may be empty
	}

	res, err := newImporter(deck).Import(ctx, deckID, rows, false)
	require.NoError(t, err)
	assert.Equal(t, Result{Read: 5, Created: 2, Duplicates: 2, Blank: 1}, res)

	cards, err := deck.ListCards(ctx, deckID)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, "dog", cards[1].FrontText)
	assert.Equal(t, "bird", cards[2].FrontText)
}

func TestImport_DryRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deck := memory.NewDeckStore()
	deckID := uuid.New()

	res, err := newImporter(deck).Import(ctx, deckID, []Row{{1, "a", "b"}}, true)
	require.NoError(t, err)
	assert.Zero(t, res.Created)

	cards, err := deck.ListCards(ctx, deckID)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestImport_UsesBulkInsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deck := &bulkStore{DeckStore: memory.NewDeckStore()}

	res, err := newImporter(deck).Import(ctx, uuid.New(), []Row{{1, "a", "b"}, {2, "c", "d"}}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, deck.batches)
}

func TestImport_WriteError(t *testing.T) {
	t.Parallel()

	deck := failingStore{memory.NewDeckStore()}

	_, err := newImporter(deck).Import(context.Background(), uuid.New(), []Row{{1, "a", "b"}}, false)
	assert.ErrorContains(t, err, "disk full")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Hello", "hello"},
		{"  ice   cream ", "ice cream"},
		{"tab\tand\nnewline", "tab and newline"},
		{"Ёлка", "ёлка"},
		{"don't", "don't"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize(tt.in), "input %q", tt.in)
	}
}
