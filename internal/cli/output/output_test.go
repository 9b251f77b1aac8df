package output

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTest(mode OutputMode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestMode(t *testing.T) {
	assert.Equal(t, ModeText, Mode("text"))
	assert.Equal(t, ModeMarkdown, Mode("markdown"))
	assert.Equal(t, ModeMarkdown, Mode("md"))
	assert.Equal(t, ModeJSON, Mode("json"))
	assert.Equal(t, ModeAuto, Mode(""))
	assert.Equal(t, ModeAuto, Mode("yaml"))
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode OutputMode
		tty  bool
		want OutputMode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
		{"", false, ModeMarkdown},
	}
	for _, tt := range tests {
		r, _, _ := newTest(tt.mode, tt.tty)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode=%q tty=%v", tt.mode, tt.tty)
	}
}

func TestHeaderMarkdown(t *testing.T) {
	r, out, _ := newTest(ModeAuto, false)
	r.Header(2, "Groups")
	r.KeyValue("Dataset", "quarter")
	assert.Equal(t, "## Groups\n**Dataset:** quarter\n", out.String())
}

func TestTable(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTest(ModeMarkdown, false)
		r.Table([]string{"Period", "GDP"}, [][]string{{"2020-Q1", "100"}})
		s := out.String()
		assert.Contains(t, s, "| Period | GDP |")
		assert.Contains(t, s, "| 2020-Q1 | 100 |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTest(ModeText, false)
		r.Table([]string{"Period", "GDP"}, [][]string{{"2020-Q1", "100"}})
		s := out.String()
		assert.Contains(t, s, "PERIOD")
		assert.Contains(t, s, "2020-Q1")
		assert.Contains(t, s, "┌")
	})
}

func TestNonTTYHasNoANSI(t *testing.T) {
	r, out, errOut := newTest(ModeText, false)
	r.Header(1, "Datasets")
	r.Success("published")
	r.StatusLine("quarter", "completed", "13 rows")
	r.Error("boom")

	combined := out.String() + errOut.String()
	assert.NotContains(t, combined, "\x1b[")
	assert.Contains(t, errOut.String(), "boom")
	assert.Contains(t, out.String(), "13 rows")
}

func TestJSON(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)
	require.NoError(t, r.JSON(SeedOutput{Directory: "seeds", Seeds: []string{"regions"}}))
	assert.True(t, strings.HasPrefix(out.String(), "{\n  \"directory\": \"seeds\""))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "1,234.57", FormatNumber(1234.567))
	assert.Equal(t, "-12", FormatNumber(-12))
	assert.Equal(t, "", FormatNumber(math.NaN()))
}

func TestFormatPercent(t *testing.T) {
	v := 2.5
	assert.Equal(t, "+2.50%", FormatPercent(&v))
	assert.Equal(t, "n/a", FormatPercent(nil))
}
