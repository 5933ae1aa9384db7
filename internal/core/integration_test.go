//go:build integration
// +build integration

// Integration tests for NFC hardware
//
// These tests require an actual reader and tag. They are NOT run
// automatically in CI - use the following command on a machine with an
// ACR122U connected and a tag on it:
//
//   go test -tags=integration -v ./internal/core/...

package core

import (
	"context"
	"testing"
	"time"
)

func openHardwareSession(t *testing.T) (*Session, Reader) {
	t.Helper()

	s, err := OpenSession(DefaultContextFactory{}, nil)
	if err != nil {
		t.Skipf("PC/SC unavailable: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	readers, err := s.ListReaders()
	if err != nil || len(readers) == 0 {
		t.Skip("No readers found - skipping hardware tests")
	}
	for i, r := range readers {
		t.Logf("  [%d] %s (%s)", i, r.Name, r.Type)
	}

	reader, err := SelectReader(readers, DefaultReaderModel)
	if err != nil {
		t.Skipf("First reader is not an %s: %v", DefaultReaderModel, err)
	}
	return s, reader
}

// TestIntegration_DisableBuzzer sends the escape command over a direct connection
func TestIntegration_DisableBuzzer(t *testing.T) {
	s, reader := openHardwareSession(t)

	conn, err := s.ConnectDirect(reader.Name)
	if err != nil {
		t.Fatalf("ConnectDirect failed: %v", err)
	}
	defer conn.Close()

	if err := DisableBuzzer(conn, EscapeMicrosoft); err != nil {
		t.Logf("DisableBuzzer failed (known on some macOS versions): %v", err)
	}
}

// TestIntegration_ReadTag waits briefly for a tag and reads it out
func TestIntegration_ReadTag(t *testing.T) {
	s, reader := openHardwareSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewConnector(s, reader.Name, nil).Connect(ctx)
	if err != nil {
		t.Skipf("No tag presented: %v", err)
	}
	defer conn.Close()

	uid, err := GetUID(conn)
	if err != nil {
		t.Fatalf("GetUID failed: %v", err)
	}
	t.Logf("  UID: %s", uid)

	ats, err := GetATS(conn)
	if err != nil {
		t.Fatalf("GetATS failed: %v", err)
	}
	t.Logf("  ATS supported: %v (%s)", ats.Supported, FormatHex(ats.Response))

	st, err := GetStatus(conn)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	t.Logf("  ATR: %s", FormatHex(st.Atr))

	kind, err := ClassifyStatus(st.Atr)
	if err != nil {
		t.Logf("  Classification: %v", err)
		return
	}
	t.Logf("  Type: %s", kind)
}
