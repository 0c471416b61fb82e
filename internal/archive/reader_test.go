package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArchive builds a feeder export zip from member name to CSV content.
func writeArchive(t *testing.T, members map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const registryCSV = "tiere_id;tier_nr;geburtsdatum;kurvennr\n" +
	"101;9001;10.01.2024;6\n" +
	"102.0;9002;15/08/2024;7\n"

func TestAnimals(t *testing.T) {
	path := writeArchive(t, map[string]string{RegistryMember: registryCSV})
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	animals, err := r.Animals()
	require.NoError(t, err)
	require.Len(t, animals, 2)

	assert.Equal(t, int64(101), animals[0].UrbanID)
	assert.Equal(t, int64(9001), animals[0].TagNumber)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), animals[0].BirthDate)
	assert.Equal(t, 6, animals[0].CurveID)
	assert.Equal(t, "B1_2024", animals[0].Cohort)

	// float-rendered id and slash-separated date
	assert.Equal(t, int64(102), animals[1].UrbanID)
	assert.Equal(t, time.Date(2024, time.August, 15, 0, 0, 0, 0, time.UTC), animals[1].BirthDate)
	assert.Equal(t, "B2_2024", animals[1].Cohort)
}

func TestAnimalsUnrecognizedSchema(t *testing.T) {
	path := writeArchive(t, map[string]string{
		RegistryMember: "animal_id;ear_tag\n1;2\n",
	})
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Animals()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized schema")
}

func TestVisitsCurrentSchema(t *testing.T) {
	visitCSV := "tiere_id;sollmenge_milch;verbrauch_milch;verbrauch_mat1;verbrauch_mat2;verbrauch_wasser;" +
		"zeit_fuetterung_start_datum;zeit_fuetterung_start_zeit;zeit_fuetterung_fertig_datum;zeit_fuetterung_fertig_zeit\n" +
		"101;2,5;2,0;0,1;0;0,3;2024-01-20;08:15:00;2024-01-20;08:19:30\n" +
		"101;2.5;;0;0;0;2024-01-20;24:00:00;2024-01-21;00:04:00\n"
	path := writeArchive(t, map[string]string{VisitMember: visitCSV})
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	visits, err := r.Visits()
	require.NoError(t, err)
	require.Len(t, visits, 2)

	v := visits[0]
	assert.Equal(t, int64(101), v.UrbanID)
	assert.Equal(t, 2.5, v.TargetMilk)
	assert.Equal(t, 2.0, v.ActualMilk)
	assert.Equal(t, 0.1, v.Feed1)
	assert.Equal(t, 0.3, v.Water)
	assert.Equal(t, time.Date(2024, time.January, 20, 8, 15, 0, 0, time.UTC), v.Start)
	assert.Equal(t, time.Date(2024, time.January, 20, 8, 19, 30, 0, time.UTC), v.End)

	// "24:00:00" normalizes to midnight of the same date; empty cells are zero
	assert.Equal(t, time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC), visits[1].Start)
	assert.Equal(t, 0.0, visits[1].ActualMilk)
}

func TestVisitsLegacySchema(t *testing.T) {
	visitCSV := "tiere_id;sollmenge_milch;verbrauch_milch;verbrauch_mat1;verbrauch_mat2;verbrauch_wasser;" +
		"zeit_fuetterung_start;zeit_fuetterung_fertig\n" +
		"101;2.5;2.0;0;0;0;2024-01-20 08:15:00;2024-01-20 08:19:30\n"
	path := writeArchive(t, map[string]string{VisitMember: visitCSV})
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	visits, err := r.Visits()
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, time.Date(2024, time.January, 20, 8, 15, 0, 0, time.UTC), visits[0].Start)
}

func TestVisitsUnrecognizedSchema(t *testing.T) {
	path := writeArchive(t, map[string]string{
		VisitMember: "tiere_id;sollmenge_milch\n101;2.5\n",
	})
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Visits()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized schema")
}

func TestDetectionsBothSchemas(t *testing.T) {
	t.Run("current", func(t *testing.T) {
		csv := "tiere_id;erste_erkennung_datum;erste_erkennung_zeit\n101;2024-01-20;07:59:00\n"
		path := writeArchive(t, map[string]string{DetectionMember: csv})
		r, err := Open(path, nil)
		require.NoError(t, err)
		defer r.Close()

		events, err := r.Detections()
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(101), events[0].UrbanID)
		assert.Equal(t, time.Date(2024, time.January, 20, 7, 59, 0, 0, time.UTC), events[0].At)
	})

	t.Run("legacy", func(t *testing.T) {
		csv := "tiere_id;erste_erkennung\n101;2024-01-20 07:59:00\n"
		path := writeArchive(t, map[string]string{DetectionMember: csv})
		r, err := Open(path, nil)
		require.NoError(t, err)
		defer r.Close()

		events, err := r.Detections()
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, time.Date(2024, time.January, 20, 7, 59, 0, 0, time.UTC), events[0].At)
	})
}

func TestMissingMemberIsFatal(t *testing.T) {
	path := writeArchive(t, map[string]string{RegistryMember: registryCSV})
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Visits()
	require.Error(t, err)
	assert.Contains(t, err.Error(), VisitMember)
}

func TestOpenRejectsNonArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.zip")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))
	_, err := Open(path, nil)
	assert.Error(t, err)
}

func TestParseDayFirstDate(t *testing.T) {
	for raw, want := range map[string]time.Time{
		"10.01.2024": time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		"10/01/2024": time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		"10-01-2024": time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		"2024-01-10": time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
	} {
		got, err := parseDayFirstDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := parseDayFirstDate("Jan 10 2024")
	assert.Error(t, err)
}
