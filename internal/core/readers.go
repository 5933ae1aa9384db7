package core

import (
	"fmt"
	"strings"

	"github.com/SimplyPrint/nfc-diag/internal/logging"
)

// DefaultReaderModel is the name fragment of the only reader this tool has
// been validated against.
const DefaultReaderModel = "ACR122"

// Reader represents a single NFC reader device.
type Reader struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "picc" for contactless readers, "sam" for SAM slots
}

// readersFromNames keeps the service's enumeration order.
func readersFromNames(names []string) []Reader {
	readers := make([]Reader, 0, len(names))
	for i, name := range names {
		readers = append(readers, Reader{
			ID:   fmt.Sprintf("reader-%d", i),
			Name: name,
			Type: detectReaderType(name),
		})
	}
	return readers
}

// detectReaderType determines if a reader is a PICC or SAM interface based on its name.
func detectReaderType(name string) string {
	nameLower := strings.ToLower(name)

	if strings.Contains(nameLower, " sam") || strings.Contains(nameLower, "sam ") {
		return "sam"
	}

	if strings.Contains(nameLower, "picc") {
		return "picc"
	}

	// Some ACR122U firmwares don't include "PICC" in the name
	return "picc"
}

// SelectReader returns the first enumerated reader after checking that its
// name contains model. An empty model accepts any reader.
func SelectReader(readers []Reader, model string) (Reader, error) {
	if len(readers) == 0 || readers[0].Name == "" {
		return Reader{}, &ConfigurationError{Kind: NoReaders, Model: model}
	}

	reader := readers[0]
	if !ContainsSubstring(reader.Name, model) {
		logging.Warn(logging.CatReader, "Reader model mismatch", map[string]any{
			"reader": reader.Name,
			"model":  model,
		})
		return Reader{}, &ConfigurationError{Kind: WrongModel, Reader: reader.Name, Model: model}
	}

	return reader, nil
}

// ContainsSubstring reports whether needle occurs in haystack, case-sensitively.
// An empty needle matches every haystack.
func ContainsSubstring(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
