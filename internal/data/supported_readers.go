package data

import (
	_ "embed"
	"encoding/json"
	"strings"
)

// SupportedReader is a reader model the diagnostic knows about
type SupportedReader struct {
	Name          string           `json:"name"`
	Manufacturer  string           `json:"manufacturer"`
	Match         string           `json:"match"` // case-sensitive fragment of the PC/SC reader name
	Description   string           `json:"description"`
	Validated     bool             `json:"validated"`
	SupportedTags []string         `json:"supportedTags"`
	Capabilities  ReaderCapability `json:"capabilities"`
	Limitations   []string         `json:"limitations"`
}

// ReaderCapability describes which diagnostic commands a reader handles
type ReaderCapability struct {
	GetUID        bool `json:"getUid"`
	GetATS        bool `json:"getAts"`
	BuzzerControl bool `json:"buzzerControl"`
}

// SupportedReadersData is the root structure of the JSON file
type SupportedReadersData struct {
	Readers []SupportedReader `json:"readers"`
}

//go:embed supported_readers.json
var supportedReadersJSON []byte

// GetSupportedReaders returns the reader catalogue
func GetSupportedReaders() ([]SupportedReader, error) {
	var data SupportedReadersData
	if err := json.Unmarshal(supportedReadersJSON, &data); err != nil {
		return nil, err
	}
	return data.Readers, nil
}

// ValidatedReaders returns the catalogue entries the diagnostic was tested against
func ValidatedReaders() ([]SupportedReader, error) {
	readers, err := GetSupportedReaders()
	if err != nil {
		return nil, err
	}
	validated := make([]SupportedReader, 0, len(readers))
	for _, r := range readers {
		if r.Validated {
			validated = append(validated, r)
		}
	}
	return validated, nil
}

// FindReader returns the catalogue entry whose match fragment occurs in the
// PC/SC reader name
func FindReader(readerName string) (SupportedReader, bool) {
	readers, err := GetSupportedReaders()
	if err != nil {
		return SupportedReader{}, false
	}
	for _, r := range readers {
		if r.Match != "" && strings.Contains(readerName, r.Match) {
			return r, true
		}
	}
	return SupportedReader{}, false
}
