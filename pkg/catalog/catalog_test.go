package catalog_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsona/pawsona/pkg/catalog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func allAnswers(selected string) []catalog.Answer {
	answers := make([]catalog.Answer, 0, 12)
	for id := 1; id <= 12; id++ {
		answers = append(answers, catalog.Answer{QuestionID: id, Selected: selected})
	}
	return answers
}

func TestQuestionsShape(t *testing.T) {
	qs := catalog.Questions()
	require.Len(t, qs, 12)

	wantDims := []string{"EI", "EI", "EI", "SN", "SN", "SN", "TF", "TF", "TF", "JP", "JP", "JP"}
	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
		assert.Equal(t, wantDims[i], q.Dimension)
		assert.NotEmpty(t, q.Title)
		assert.NotEmpty(t, q.OptionA)
		assert.NotEmpty(t, q.OptionB)
	}
}

func TestQuestionsReturnsCopy(t *testing.T) {
	qs := catalog.Questions()
	qs[0].Title = "mutated"
	assert.NotEqual(t, "mutated", catalog.Questions()[0].Title)
}

func TestScoreExtremes(t *testing.T) {
	code, err := catalog.Score(allAnswers("A"))
	require.NoError(t, err)
	assert.Equal(t, "WTIL", code)

	code, err = catalog.Score(allAnswers("B"))
	require.NoError(t, err)
	assert.Equal(t, "DILP", code)
}

func TestScoreMajorityPerDimension(t *testing.T) {
	selections := []string{
		"A", "A", "B", // 2-1 toward E
		"B", "B", "B", // 0-3 toward N
		"A", "B", "B", // 1-2 toward F
		"A", "A", "B", // 2-1 toward J
	}
	answers := make([]catalog.Answer, 0, 12)
	for i, sel := range selections {
		answers = append(answers, catalog.Answer{QuestionID: i + 1, Selected: sel})
	}

	code, err := catalog.Score(answers)
	require.NoError(t, err)
	assert.Equal(t, "WILL", code)
}

func TestScoreRejectsBadSubmissions(t *testing.T) {
	short := allAnswers("A")[:11]

	badID := allAnswers("A")
	badID[3].QuestionID = 13

	badSelection := allAnswers("A")
	badSelection[7].Selected = "C"

	cases := map[string][]catalog.Answer{
		"nil answers":    nil,
		"too few":        short,
		"unknown id":     badID,
		"bad selection":  badSelection,
		"lowercase pick": func() []catalog.Answer { a := allAnswers("A"); a[0].Selected = "a"; return a }(),
	}
	for name, answers := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.Score(answers)
			assert.ErrorIs(t, err, catalog.ErrInvalidSubmission)
		})
	}
}

const sampleCSV = "\xEF\xBB\xBF" +
	"Pawna,MBTI,Type Name,Description,Solution,Personality,Img URL,Site URL\n" +
	"WTIL,ESTJ,Confident Captain,Curious and energetic.,Needs plenty of exercise.,\"Outgoing, Social, Curious\",https://img.test/wtil.png,https://site.test/wtil\n" +
	"DILP,INFP,Calm Dreamer,Quiet and steady.,Keep routines predictable.,\"Gentle, Loyal\",,\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pawna_types.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	c, err := catalog.Load(writeCSV(t, sampleCSV), discardLogger())
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	got, ok := c.Lookup("wtil")
	require.True(t, ok, "lookup should ignore case")
	assert.Equal(t, "WTIL", got.Code)
	assert.Equal(t, "ESTJ", got.MBTI)
	assert.Equal(t, "Confident Captain", got.Name)
	assert.Equal(t, "Curious and energetic.", got.Description)
	assert.Equal(t, "Needs plenty of exercise.", got.Solution)
	assert.Equal(t, []string{"Outgoing", "Social", "Curious"}, got.Traits)
	assert.Equal(t, "https://img.test/wtil.png", got.ImageURL)

	_, ok = c.Lookup("XXXX")
	assert.False(t, ok)

	types := c.Types()
	require.Len(t, types, 2)
	assert.Equal(t, "WTIL", types[0].Code)
	assert.Equal(t, "DILP", types[1].Code)
	assert.Empty(t, types[1].Traits, "blank Personality column stays empty")
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	c, err := catalog.Load(filepath.Join(t.TempDir(), "nope.csv"), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Types())

	_, ok := c.Lookup("WTIL")
	assert.False(t, ok)
}

func TestLoadRejectsWrongHeader(t *testing.T) {
	path := writeCSV(t, "Code,Name\nWTIL,Confident Captain\n")
	_, err := catalog.Load(path, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pawna")
}
