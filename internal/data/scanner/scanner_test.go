package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileScanner(t *testing.T) {
	baseDir := "/tmp/test"
	scanner := NewFileScanner(baseDir)

	assert.NotNil(t, scanner)
	assert.Equal(t, baseDir, scanner.baseDir)
}

func TestFileScannerScanEmptyDirectory(t *testing.T) {
	tempDir := t.TempDir()
	scanner := NewFileScanner(tempDir)

	files, err := scanner.Scan()

	require.NoError(t, err)
	assert.Empty(t, files, "Empty directory should return no files")
}

func TestFileScannerScanNonExistentDirectory(t *testing.T) {
	nonExistentDir := "/path/that/does/not/exist"
	scanner := NewFileScanner(nonExistentDir)

	files, err := scanner.Scan()

	// Scanner handles errors gracefully by skipping them
	require.NoError(t, err, "Scanner should handle non-existent directory gracefully")
	assert.Empty(t, files, "Non-existent directory should return no files")
}

func TestFileScannerScanMixedFileTypes(t *testing.T) {
	tempDir := t.TempDir()
	scanner := NewFileScanner(tempDir)

	fileTypes := []struct {
		name        string
		isRecording bool
	}{
		{"shift1.ru", true},
		{"shift2.RU", true}, // Case insensitive
		{"shift3.ru.gz", true},
		{"shift4.RU.GZ", true},
		{"notes.txt", false},
		{"report.json", false},
		{"archive.gz", false},    // Plain gzip without the .ru extension
		{"backup.ru.bak", false}, // .ru not at the end
	}

	expected := []string{}
	for _, file := range fileTypes {
		fullPath := filepath.Join(tempDir, file.name)
		err := os.WriteFile(fullPath, []byte("content"), 0644)
		require.NoError(t, err)

		if file.isRecording {
			expected = append(expected, fullPath)
		}
	}

	files, err := scanner.Scan()

	require.NoError(t, err)
	assert.Len(t, files, len(expected), "Should only find .ru and .ru.gz files")
	for _, expectedFile := range expected {
		assert.Contains(t, files, expectedFile)
	}
}

func TestFileScannerScanNestedDirectories(t *testing.T) {
	tempDir := t.TempDir()
	scanner := NewFileScanner(tempDir)

	testStructure := []string{
		"depot1/shift1.ru",
		"depot1/train12/shift2.ru",
		"depot1/train12/archive/shift3.ru.gz",
		"depot2/shift4.ru",
	}

	for _, path := range testStructure {
		fullPath := filepath.Join(tempDir, path)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		require.NoError(t, err)

		err = os.WriteFile(fullPath, []byte("content"), 0644)
		require.NoError(t, err)
	}

	files, err := scanner.Scan()

	require.NoError(t, err)
	assert.Len(t, files, len(testStructure), "Should find recording files in nested directories")
	for _, expectedPath := range testStructure {
		assert.Contains(t, files, filepath.Join(tempDir, expectedPath))
	}
}

func TestIsRecordingFile(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"plain_recording", "data/shift.ru", true},
		{"compressed_recording", "data/shift.ru.gz", true},
		{"uppercase_extension", "SHIFT.RU", true},
		{"gzip_without_ru", "shift.gz", false},
		{"ru_in_middle", "shift.ru.old", false},
		{"unrelated", "shift.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecordingFile(tt.path))
		})
	}
}
