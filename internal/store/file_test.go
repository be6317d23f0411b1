package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"elitedashboard/server/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data", "data.json"), logger)
	require.NoError(t, err)
	return s
}

func villa() models.PropertyRecord {
	return models.PropertyRecord{
		PropertyType: "Villa",
		Size:         200,
		Price:        1500000,
		City:         "Cairo",
		TS:           1700000000000,
	}
}

func TestFileStore_InitializeCreatesEmptyCollection(t *testing.T) {
	s := newTestStore(t)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	records, err := s.List()
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFileStore_InitializeIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(villa()))

	require.NoError(t, s.Initialize())

	records, err := s.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFileStore_AppendAndList(t *testing.T) {
	s := newTestStore(t)

	first := villa()
	second := models.PropertyRecord{
		PropertyType:  "Apartment",
		Size:          90,
		Price:         450000,
		City:          "Giza",
		Latitude:      30.01,
		Floors:        4,
		Status:        models.StatusInProgress,
		ParkingSpaces: 2,
		TS:            1700000000500,
	}
	require.NoError(t, s.Append(first))
	require.NoError(t, s.Append(second))

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first, records[0])
	assert.Equal(t, second, records[1])
}

func TestFileStore_WritesPrettyPrintedArray(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(villa()))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[\n  {\n    \"propertyType\": \"Villa\",")

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(200), raw[0]["size"])
}

func TestFileStore_StoresMarkupCharactersLiterally(t *testing.T) {
	tests := []struct {
		name string
		city string
	}{
		{name: "ampersand", city: "A&B"},
		{name: "angle brackets", city: "<New> Cairo"},
		{name: "mixed", city: "A&B <x>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			record := villa()
			record.City = tt.city
			require.NoError(t, s.Append(record))
			require.NoError(t, s.Append(villa()))

			data, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			assert.Contains(t, string(data), `"city": "`+tt.city+`"`)
			assert.NotContains(t, string(data), `\u00`)
			assert.NotEqual(t, byte('\n'), data[len(data)-1])

			records, err := s.List()
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, tt.city, records[0].City)
		})
	}
}

func TestFileStore_PreservesExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	legacy := `[{"propertyType":"Duplex","size":120,"price":900000,"city":"Alexandria","ts":1690000000000}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Append(villa()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.NotContains(t, raw[0], "floors")
	assert.Equal(t, "Duplex", raw[0]["propertyType"])
	assert.Equal(t, "Villa", raw[1]["propertyType"])
}

func TestFileStore_ListIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(villa()))

	first, err := s.List()
	require.NoError(t, err)
	second, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFileStore_MissingFileListsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.Remove(s.Path()))

	records, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.Append(villa()))
	records, err = s.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFileStore_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: "[{"},
		{name: "not an array", content: `{"propertyType":"Villa"}`},
		{name: "empty file", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0644))

			_, err := s.List()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStorageRead))

			var storageErr *StorageError
			require.True(t, errors.As(err, &storageErr))
			assert.Equal(t, s.Path(), storageErr.Path)

			err = s.Append(villa())
			assert.True(t, errors.Is(err, ErrStorageRead))

			data, readErr := os.ReadFile(s.Path())
			require.NoError(t, readErr)
			assert.Equal(t, tt.content, string(data), "corrupt file must not be repaired")
		})
	}
}

func TestFileStore_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	s, err := NewFileStore(path, nil)
	require.NoError(t, err)

	// a directory in place of the file keeps the rename from succeeding
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0755))

	err = s.Append(villa())
	require.Error(t, err)
}

func TestFileStore_ConcurrentAppendsAreAllPersisted(t *testing.T) {
	s := newTestStore(t)

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := villa()
			rec.TS = int64(i)
			assert.NoError(t, s.Append(rec))
		}(i)
	}
	wg.Wait()

	records, err := s.List()
	require.NoError(t, err)
	assert.Len(t, records, writers)
}
