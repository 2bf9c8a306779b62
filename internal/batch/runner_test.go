package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/converter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/jsonwriter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/nfe"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/xmlparser"
	"github.com/ginjaninja78/XML-to-JSON-conversion/pkg/utils"
)

type fixture struct {
	in, out string
	good    string
	invoice string
	bad     string
}

func setup(t *testing.T) fixture {
	t.Helper()
	f := fixture{in: t.TempDir(), out: t.TempDir()}

	f.good = filepath.Join(f.in, "catalog.xml")
	require.NoError(t, os.WriteFile(f.good, []byte(`<catalog><book id="1">Go</book><book id="2">XML</book></catalog>`), 0o644))

	nota, err := os.ReadFile(filepath.Join("..", "nfe", "testdata", "nfe_proc.xml"))
	require.NoError(t, err)
	f.invoice = filepath.Join(f.in, "2025", "nota.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(f.invoice), 0o755))
	require.NoError(t, os.WriteFile(f.invoice, nota, 0o644))

	f.bad = filepath.Join(f.in, "broken.xml")
	require.NoError(t, os.WriteFile(f.bad, []byte("<a>\n  <b>\n</a>"), 0o644))
	return f
}

func newRunner(f fixture, opts Options) *Runner {
	conv := converter.New(converter.DefaultOptions(), zap.NewNop())
	ext := nfe.NewExtractor(nfe.DefaultOptions(), zap.NewNop())
	return New(conv, ext, utils.NewFileManager(f.in, f.out), opts, zap.NewNop())
}

func TestRunConvertsAndCollectsFailures(t *testing.T) {
	f := setup(t)
	inputs := []string{f.good, f.invoice, f.bad}

	summary := newRunner(f, Options{MaxConcurrency: 2, Writer: jsonwriter.DefaultOptions()}).Run(context.Background(), inputs)

	require.Len(t, summary.Results, 3)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Converted())
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 0, summary.Skipped())

	for i, r := range summary.Results {
		assert.Equal(t, inputs[i], r.InputFile)
	}

	good := summary.Results[0]
	assert.Equal(t, StatusConverted, good.Status)
	assert.Equal(t, filepath.Join(f.out, "catalog.json"), good.OutputFile)
	assert.Equal(t, 3, good.Stats.Elements)
	assert.Nil(t, good.NFe)

	data, err := os.ReadFile(good.OutputFile)
	require.NoError(t, err)
	v, err := types.Decode(data)
	require.NoError(t, err)
	books, _ := v.(*types.Object).Get("catalog")
	list, _ := books.(*types.Object).Get("book")
	assert.Len(t, list, 2)

	invoice := summary.Results[1]
	assert.Equal(t, filepath.Join(f.out, "2025", "nota.json"), invoice.OutputFile)
	require.NotNil(t, invoice.NFe)
	assert.Equal(t, "35250732409620000175550010000037471011544648", invoice.NFe.Get("chave_nfe"))
	assert.Len(t, summary.Records(), 1)

	bad := summary.Results[2]
	assert.Equal(t, StatusFailed, bad.Status)
	var pe *xmlparser.ParseError
	require.True(t, errors.As(bad.Err, &pe))
	assert.Equal(t, "parse", ErrorType(bad.Err))
	assert.NoFileExists(t, filepath.Join(f.out, "broken.json"))

	require.Error(t, summary.Err())
	assert.Contains(t, summary.Err().Error(), "broken.xml")
}

func TestRunSkipPolicyAndBackup(t *testing.T) {
	f := setup(t)
	existing := filepath.Join(f.out, "catalog.json")
	require.NoError(t, os.WriteFile(existing, []byte(`{"old":true}`), 0o644))

	r := newRunner(f, Options{MaxConcurrency: 1})
	r.files.Collision = utils.CollisionSkip
	summary := r.Run(context.Background(), []string{f.good})
	assert.Equal(t, 1, summary.Skipped())
	assert.True(t, errors.Is(summary.Results[0].Err, utils.ErrOutputExists))
	assert.NoError(t, summary.Err())

	r = newRunner(f, Options{MaxConcurrency: 1, Backup: true})
	summary = r.Run(context.Background(), []string{f.good})
	require.Equal(t, 1, summary.Converted())
	assert.Equal(t, f.good+".bak", summary.Results[0].BackupFile)

	original, err := os.ReadFile(f.good)
	require.NoError(t, err)
	backup, err := os.ReadFile(f.good + ".bak")
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.NotEqual(t, `{"old":true}`, string(data))
}

func TestRunSameStemInputsGetDistinctOutputs(t *testing.T) {
	for _, policy := range []utils.CollisionPolicy{utils.CollisionOverwrite, utils.CollisionSkip, utils.CollisionSuffix} {
		t.Run(string(policy), func(t *testing.T) {
			f := setup(t)
			xmlInput := filepath.Join(f.in, "nota.xml")
			nfeInput := filepath.Join(f.in, "nota.nfe")
			require.NoError(t, os.WriteFile(xmlInput, []byte(`<r><from>xml</from></r>`), 0o644))
			require.NoError(t, os.WriteFile(nfeInput, []byte(`<r><from>nfe</from></r>`), 0o644))

			r := newRunner(f, Options{MaxConcurrency: 2})
			r.files.Collision = policy
			summary := r.Run(context.Background(), []string{xmlInput, nfeInput})

			require.Equal(t, 2, summary.Converted())
			first, second := summary.Results[0], summary.Results[1]
			assert.Equal(t, filepath.Join(f.out, "nota.json"), first.OutputFile)
			assert.Equal(t, filepath.Join(f.out, "nota.nfe.json"), second.OutputFile)

			for path, want := range map[string]string{first.OutputFile: "xml", second.OutputFile: "nfe"} {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.JSONEq(t, `{"r":{"from":"`+want+`"}}`, string(data))
			}
		})
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := newRunner(f, Options{}).Run(ctx, []string{f.good, f.invoice})
	assert.Equal(t, 2, summary.Skipped())
	for _, r := range summary.Results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.NoFileExists(t, filepath.Join(f.out, "catalog.json"))
}

func TestWriteLogs(t *testing.T) {
	f := setup(t)
	summary := newRunner(f, Options{}).Run(context.Background(), []string{f.good, f.bad})

	entries := summary.ErrorEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Line)

	ps := summary.ProcessingSummary()
	assert.Equal(t, 2, ps.TotalFiles)
	assert.Equal(t, 1, ps.SuccessfulFiles)
	assert.Len(t, ps.FailedFilesList, 1)

	summaryPath, errorPath, err := summary.WriteLogs(f.out)
	require.NoError(t, err)
	assert.FileExists(t, summaryPath)
	assert.FileExists(t, errorPath)
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "encoding", ErrorType(&xmlparser.UnsupportedEncodingError{Label: "x-klingon"}))
	assert.Equal(t, "size", ErrorType(xmlparser.ErrFileTooLarge))
	assert.Equal(t, "io", ErrorType(os.ErrNotExist))
}
