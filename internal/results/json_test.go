package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords(t *testing.T) []Record {
	t.Helper()
	ok1, err := NewScoredRecord("/in/valid.dcm", Scores{{Label: Cardiomegaly, Value: 0.82}, {Label: Effusion, Value: 0.11}})
	require.NoError(t, err)
	ok2, err := NewScoredRecord("/in/valid2.dcm", Scores{{Label: Cardiomegaly, Value: 0.5}, {Label: Effusion, Value: 0.25}})
	require.NoError(t, err)
	return []Record{
		ok1,
		NewErrorRecord("/in/unreadable.dcm", KindMalformedEvidence, "parse dicom header: unexpected EOF"),
		ok2,
	}
}

func TestRecord_MarshalJSON_FlatShape(t *testing.T) {
	records := sampleRecords(t)

	data, err := records[0].MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"Cardiomegaly":0.82,"Effusion":0.11,"file_path":"/in/valid.dcm"}`, string(data))

	data, err = records[1].MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"error":"malformed_evidence","message":"parse dicom header: unexpected EOF","file_path":"/in/unreadable.dcm"}`, string(data))
}

func TestRecord_MarshalJSON_RejectsInvalid(t *testing.T) {
	_, err := Record{FilePath: "x.dcm"}.MarshalJSON()
	assert.Error(t, err)
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	records := sampleRecords(t)

	require.NoError(t, WriteFile(path, records))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n    {"), "results should be indented with four spaces:\n%s", raw)

	got, rejected, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, rejected)
	require.Len(t, got, 3)

	assert.Equal(t, "/in/valid.dcm", got[0].FilePath)
	assert.Equal(t, []Pathology{Cardiomegaly, Effusion}, got[0].Scores.Labels(), "labels are read back in written order")
	v, ok := got[0].Scores.Get(Cardiomegaly)
	require.True(t, ok)
	assert.Equal(t, 0.82, v)
	require.True(t, got[1].IsError())
	assert.Equal(t, KindMalformedEvidence, got[1].Err.Kind)
	assert.Equal(t, "/in/unreadable.dcm", got[1].FilePath)
}

func TestReadFile_LegacyShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `[
    {"Effusion": 0.3, "Atelectasis": 0.2, "Zebra": 0.9, "file_path": "a.dcm"},
    {"Error": "dimension lower than 2 for image", "file_path": "b.dcm"}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	got, rejected, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, rejected)
	require.Len(t, got, 2)

	assert.Equal(t, []Pathology{Effusion, Atelectasis, "Zebra"}, got[0].Scores.Labels())
	require.True(t, got[1].IsError())
	assert.Equal(t, KindInference, got[1].Err.Kind)
	assert.Equal(t, "dimension lower than 2 for image", got[1].Err.Message)
}

func TestReadFile_KeepsUsableEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	content := `[
    {"Cardiomegaly": 0.82, "file_path": "a.dcm"},
    null,
    {"file_path": "b.dcm"},
    {"Effusion": 0.11, "file_path": "c.dcm"}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, rejected, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.dcm", got[0].FilePath)
	assert.Equal(t, "c.dcm", got[1].FilePath)

	require.Len(t, rejected, 2)
	assert.Equal(t, 1, rejected[0].Index)
	assert.Empty(t, rejected[0].FilePath)
	assert.Equal(t, "entry 2", rejected[0].Label())
	assert.Equal(t, 2, rejected[1].Index)
	assert.Equal(t, "b.dcm", rejected[1].Label())
	assert.Contains(t, rejected[1].Reason, "no scores")
}

func TestReadFile_NotAnArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"file_path": "a.dcm"}`), 0o644))
	_, _, err := ReadFile(path)
	assert.Error(t, err)

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRecord_UnmarshalJSON_KeepsKeyOrder(t *testing.T) {
	var rec Record
	require.NoError(t, rec.UnmarshalJSON([]byte(`{"Zebra": 0.9, "Mass": 0.1, "Apple": 0.5, "file_path": "a.dcm"}`)))
	assert.Equal(t, []Pathology{"Zebra", Mass, "Apple"}, rec.Scores.Labels())

	assert.Error(t, rec.UnmarshalJSON([]byte(`null`)))
	assert.Error(t, rec.UnmarshalJSON([]byte(`[1]`)))
}

func TestSummarize(t *testing.T) {
	stats := Summarize(sampleRecords(t))
	require.Len(t, stats, 2)

	assert.Equal(t, Effusion, stats[0].Label)
	assert.Equal(t, Cardiomegaly, stats[1].Label)
	assert.Equal(t, 2, stats[1].Count)
	assert.InDelta(t, 0.66, stats[1].Mean, 1e-9)
	assert.InDelta(t, 0.5, stats[1].Min, 1e-9)
	assert.InDelta(t, 0.82, stats[1].Max, 1e-9)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, WriteXLSX(path, sampleRecords(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"file_path", "status", "Effusion", "Cardiomegaly", "error_kind", "error_message"}, rows[0])
	assert.Equal(t, "error", rows[2][1])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Len(t, summary, 3)
}
