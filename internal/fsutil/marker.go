package fsutil

import (
	"bytes"
	"os"
)

// GeneratedMarker appears in the provenance header of every file kconfgen
// writes.
const GeneratedMarker = "Automatically generated file. DO NOT EDIT."

// IsGeneratedFile checks if data carries the generated-file marker.
func IsGeneratedFile(data []byte) bool {
	return bytes.Contains(data, []byte(GeneratedMarker))
}

// SafeToOverwrite reports whether path is absent, empty or a file kconfgen
// generated earlier.
func SafeToOverwrite(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(data) == 0 || IsGeneratedFile(data), nil
}
