package core

import "testing"

// Reader names from real hardware
var mockReaderNames = []string{
	"ACS ACR122U PICC Interface",
	"ACS ACR1552 1S CL Reader PICC",
	"ACS ACR1252 Dual Reader PICC",
}

func TestDetectReaderType(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		// SAM readers should be detected
		{"ACS ACR1252U SAM Interface", "sam"},
		{"Reader SAM 0", "sam"},
		{"ACS ACR1552 1S CL Reader SAM 0", "sam"},
		{"SCM Microsystems SCL010 SAM Slot", "sam"},

		// PICC readers should be detected (real hardware names)
		{"ACS ACR122U PICC Interface", "picc"},
		{"ACS ACR122U PICC Interface 00 01", "picc"},
		{"ACS ACR1252 1S CL Reader PICC 0", "picc"},
		{"ACS ACR1552 1S CL Reader PICC", "picc"},

		// Readers without explicit type should default to PICC
		{"ACS ACR122U", "picc"},
		{"Generic USB Reader", "picc"},
		{"HID OMNIKEY 5022 CL", "picc"},

		// Edge cases
		{"", "picc"},
		{"SAM", "picc"},
		{" SAM ", "sam"},
		{"MySAMReader", "picc"},
		{"SamSung Reader", "picc"},
		{"ACS ACR1252U sam Interface", "sam"},
		{"ACS ACR122U PiCc Interface", "picc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := detectReaderType(tt.name)
			if result != tt.expected {
				t.Errorf("detectReaderType(%q) = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestReadersFromNames(t *testing.T) {
	names := append([]string{"ACS ACR1252U SAM Interface"}, mockReaderNames...)
	readers := readersFromNames(names)

	if len(readers) != len(names) {
		t.Fatalf("expected %d readers, got %d", len(names), len(readers))
	}

	// Order and SAM slots are preserved; the first enumerated reader is the one used
	if readers[0].ID != "reader-0" || readers[0].Type != "sam" {
		t.Errorf("unexpected first reader: %+v", readers[0])
	}
	for i, r := range readers[1:] {
		if r.Name != mockReaderNames[i] {
			t.Errorf("reader %d: expected name %q, got %q", i+1, mockReaderNames[i], r.Name)
		}
		if r.Type != "picc" {
			t.Errorf("reader %d: expected picc, got %s", i+1, r.Type)
		}
	}
}

func TestSelectReader(t *testing.T) {
	tests := []struct {
		name     string
		readers  []string
		model    string
		wantName string
		wantKind ConfigErrorKind
		wantErr  bool
	}{
		{"ACR122U matches", []string{"ACS ACR122U PICC Interface 00 01"}, "ACR122", "ACS ACR122U PICC Interface 00 01", 0, false},
		{"first reader wins", []string{"ACS ACR122U PICC Interface", "ACS ACR1252 Dual Reader PICC"}, "ACR122", "ACS ACR122U PICC Interface", 0, false},
		{"first reader is wrong model", []string{"ACS ACR1252 Dual Reader PICC", "ACS ACR122U PICC Interface"}, "ACR122", "", WrongModel, true},
		{"case sensitive", []string{"acs acr122u picc interface"}, "ACR122", "", WrongModel, true},
		{"empty model accepts any", []string{"HID OMNIKEY 5022 CL"}, "", "HID OMNIKEY 5022 CL", 0, false},
		{"no readers", nil, "ACR122", "", NoReaders, true},
		{"empty name", []string{""}, "ACR122", "", NoReaders, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := SelectReader(readersFromNames(tt.readers), tt.model)
			if tt.wantErr {
				cfgErr, ok := err.(*ConfigurationError)
				if !ok {
					t.Fatalf("expected *ConfigurationError, got %T (%v)", err, err)
				}
				if cfgErr.Kind != tt.wantKind {
					t.Errorf("expected kind %d, got %d", tt.wantKind, cfgErr.Kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reader.Name != tt.wantName {
				t.Errorf("expected reader %q, got %q", tt.wantName, reader.Name)
			}
		})
	}
}

func TestContainsSubstring(t *testing.T) {
	tests := []struct {
		haystack string
		needle   string
		expected bool
	}{
		{"ACS ACR122U PICC Interface", "ACR122", true},
		{"ACS ACR122U PICC Interface", "acr122", false},
		{"ACS ACR1252 Dual Reader PICC", "ACR122", false},
		{"ACR122", "ACR122", true},
		{"ACR12", "ACR122", false},
		{"AACR122", "ACR122", true},
		{"ACRACR122", "ACR122", true},
		{"anything", "", true},
		{"", "", true},
		{"", "A", false},
	}

	for _, tt := range tests {
		t.Run(tt.haystack+"/"+tt.needle, func(t *testing.T) {
			if got := ContainsSubstring(tt.haystack, tt.needle); got != tt.expected {
				t.Errorf("ContainsSubstring(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.expected)
			}
		})
	}
}

func BenchmarkDetectReaderType(b *testing.B) {
	readerName := "ACS ACR122U PICC Interface"
	for i := 0; i < b.N; i++ {
		detectReaderType(readerName)
	}
}
