package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SimplyPrint/nfc-diag/internal/logging"
)

// APDU status words
const (
	SW1Success = 0x90
	SW2Success = 0x00
)

// Conn is a live connection to a reader. Every successful exchange is traced
// as a "> " line with the command and a "< " line with the response.
type Conn struct {
	card   SmartCard
	reader string
	trace  io.Writer
}

// Reader returns the name of the reader this connection is bound to.
func (c *Conn) Reader() string {
	return c.reader
}

// Transmit sends cmd and returns the reader's response unchanged, status
// trailer included. Card-level status words are not interpreted.
func (c *Conn) Transmit(cmd []byte) ([]byte, error) {
	if len(cmd) == 0 {
		return nil, errors.New("transmit: empty command")
	}
	if c.card == nil {
		return nil, &ServiceError{Op: "transmit", Err: errors.New("connection closed")}
	}

	rsp, err := c.card.Transmit(cmd)
	if err != nil {
		svcErr := newServiceError("transmit", err)
		fmt.Fprintf(c.trace, "%08x\n", svcErr.Code)
		logging.Error(logging.CatAPDU, "Transmit failed", map[string]any{
			"command": hex.EncodeToString(cmd),
			"error":   svcErr.Error(),
		})
		return nil, svcErr
	}

	fmt.Fprint(c.trace, "> "+HexDump(cmd))
	fmt.Fprint(c.trace, "< "+HexDump(rsp))
	logging.Debug(logging.CatAPDU, "APDU exchanged", map[string]any{
		"command":  hex.EncodeToString(cmd),
		"response": hex.EncodeToString(rsp),
	})
	return rsp, nil
}

// Control sends a vendor escape command using the given control code.
func (c *Conn) Control(code uint32, cmd []byte) ([]byte, error) {
	if c.card == nil {
		return nil, &ServiceError{Op: "control", Err: errors.New("connection closed")}
	}

	rsp, err := c.card.Control(code, cmd)
	if err != nil {
		svcErr := newServiceError("control", err)
		logging.Warn(logging.CatAPDU, "Control failed", map[string]any{
			"controlCode": fmt.Sprintf("0x%08x", code),
			"command":     hex.EncodeToString(cmd),
			"error":       svcErr.Error(),
		})
		return nil, svcErr
	}

	logging.Debug(logging.CatAPDU, "Control exchanged", map[string]any{
		"controlCode": fmt.Sprintf("0x%08x", code),
		"command":     hex.EncodeToString(cmd),
		"response":    hex.EncodeToString(rsp),
	})
	return rsp, nil
}

// Status returns the reader's cached state for this connection.
func (c *Conn) Status() (SmartCardStatus, error) {
	if c.card == nil {
		return SmartCardStatus{}, &ServiceError{Op: "status", Err: errors.New("connection closed")}
	}

	st, err := c.card.Status()
	if err != nil {
		return SmartCardStatus{}, newServiceError("status", err)
	}
	return st, nil
}

// Close disconnects, leaving the card as is. Calling it more than once is a no-op.
func (c *Conn) Close() error {
	if c == nil || c.card == nil {
		return nil
	}
	err := c.card.Disconnect(LeaveCard)
	c.card = nil
	if err != nil {
		return newServiceError("disconnect", err)
	}
	logging.Debug(logging.CatReader, "Disconnected", map[string]any{"reader": c.reader})
	return nil
}

// HexDump formats b as lowercase two-digit hex bytes separated by single
// spaces, terminated by a newline.
func HexDump(b []byte) string {
	return formatBytes(b, "%02x") + "\n"
}

// FormatHex formats b as uppercase two-digit hex bytes separated by single spaces.
func FormatHex(b []byte) string {
	return formatBytes(b, "%02X")
}

func formatBytes(b []byte, verb string) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf(verb, v)
	}
	return strings.Join(parts, " ")
}

// ParseHex reads bytes written by HexDump or FormatHex. Whitespace between
// bytes is optional and either case is accepted.
func ParseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}
