package core

import (
	"io"

	"github.com/SimplyPrint/nfc-diag/internal/logging"
)

// Session owns the PC/SC context for one run. Connections opened through it
// write their APDU trace to the session's trace writer.
type Session struct {
	ctx   SmartCardContext
	trace io.Writer
}

// OpenSession establishes a PC/SC context. A nil trace discards APDU traces.
func OpenSession(factory ContextFactory, trace io.Writer) (*Session, error) {
	if trace == nil {
		trace = io.Discard
	}

	ctx, err := factory.EstablishContext()
	if err != nil {
		svcErr := newServiceError("establish context", err)
		logging.Error(logging.CatSystem, "Failed to establish PC/SC context - is pcscd running?", map[string]any{
			"error": svcErr.Error(),
			"hint":  "On Linux, ensure pcscd is installed and running: sudo systemctl status pcscd",
		})
		return nil, svcErr
	}

	logging.Debug(logging.CatSystem, "PC/SC context established", nil)
	return &Session{ctx: ctx, trace: trace}, nil
}

// ListReaders enumerates the attached readers in service order.
func (s *Session) ListReaders() ([]Reader, error) {
	names, err := s.ctx.ListReaders()
	if err != nil {
		svcErr := newServiceError("list readers", err)
		logging.Debug(logging.CatReader, "Failed to list readers", map[string]any{
			"error": svcErr.Error(),
		})
		return nil, svcErr
	}

	readers := readersFromNames(names)
	for _, r := range readers {
		logging.Info(logging.CatReader, "Reader found", map[string]any{
			"id":   r.ID,
			"name": r.Name,
			"type": r.Type,
		})
	}
	return readers, nil
}

// ConnectDirect talks to the reader itself; no tag is required.
func (s *Session) ConnectDirect(reader string) (*Conn, error) {
	return s.connect(reader, ShareDirect)
}

// ConnectShared connects to a tag on the reader. It fails with
// CodeNoSmartcard while no tag is in the field.
func (s *Session) ConnectShared(reader string) (*Conn, error) {
	return s.connect(reader, ShareShared)
}

func (s *Session) connect(reader string, shareMode uint32) (*Conn, error) {
	// T1 block transmission; T0 did not work with the ACR122U
	card, err := s.ctx.Connect(reader, shareMode, ProtocolT1)
	if err != nil {
		return nil, newServiceError("connect", err)
	}

	logging.Debug(logging.CatReader, "Connected", map[string]any{
		"reader":    reader,
		"shareMode": shareMode,
	})
	return &Conn{card: card, reader: reader, trace: s.trace}, nil
}

// Close releases the PC/SC context. Calling it more than once is a no-op.
func (s *Session) Close() error {
	if s == nil || s.ctx == nil {
		return nil
	}
	err := s.ctx.Release()
	s.ctx = nil
	if err != nil {
		return newServiceError("release context", err)
	}
	logging.Debug(logging.CatSystem, "PC/SC context released", nil)
	return nil
}
