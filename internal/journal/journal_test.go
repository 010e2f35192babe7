package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectral/internal/fragment"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func record(id string, conversion fragment.ConversionStatus) fragment.MetadataRecord {
	return fragment.MetadataRecord{
		FragmentID:   id,
		NodeID:       "ivo://vamdc/cdms",
		Endpoint:     "https://node.example/tap/",
		Query:        "select * where ...",
		LambdaMin:    1000,
		LambdaMax:    2000,
		InChIKey:     "UGFAIRIUMAVXCW-UHFFFAOYSA-N",
		Kind:         "molecule",
		Leaf:         true,
		CountHeaders: map[string]string{"vamdc-count-radiative": "1"},
		Conversion:   conversion,
	}
}

func TestRecordRunAndCount(t *testing.T) {
	j := openTestJournal(t)

	err := j.RecordRun(1000, 2000, false, []fragment.MetadataRecord{
		record("f1", fragment.ConversionSucceeded),
		record("f2", fragment.ConversionSucceeded),
		record("f3", fragment.ConversionFailed),
	})
	require.NoError(t, err)

	n, err := j.CountByConversion(fragment.ConversionSucceeded)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = j.CountByConversion(fragment.ConversionFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = j.CountByConversion(fragment.ConversionNotAttempted)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRecordRun_AccumulatesAcrossRuns(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.RecordRun(1000, 2000, false,
		[]fragment.MetadataRecord{record("f1", fragment.ConversionSucceeded)}))
	require.NoError(t, j.RecordRun(3000, 4000, true,
		[]fragment.MetadataRecord{record("f2", fragment.ConversionNotAttempted)}))

	n, err := j.CountByConversion(fragment.ConversionSucceeded)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = j.CountByConversion(fragment.ConversionNotAttempted)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordRun_EmptyRecordSet(t *testing.T) {
	j := openTestJournal(t)
	assert.NoError(t, j.RecordRun(1000, 2000, true, nil))
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordRun(1000, 2000, false,
		[]fragment.MetadataRecord{record("f1", fragment.ConversionSucceeded)}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	n, err := j.CountByConversion(fragment.ConversionSucceeded)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
