package core

import (
	"github.com/ebfe/scard"

	"github.com/SimplyPrint/nfc-diag/internal/logging"
)

// Pseudo-APDUs understood by PC/SC contactless readers
var (
	// ACR122U "Set buzzer output during card detection", P2=00 turns it off
	cmdDisableBuzzer = []byte{0xFF, 0x00, 0x52, 0x00, 0x00}
	cmdGetUID        = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}
	cmdGetATS        = []byte{0xFF, 0xCA, 0x01, 0x00, 0x00}
)

// Escape selects the reader escape code used for vendor control commands.
type Escape string

const (
	// EscapeMicrosoft is escape code 3500, which works on Windows, Linux and macOS.
	EscapeMicrosoft Escape = "microsoft"
	// EscapeACS is the vendor's documented code 2079. macOS either ignores
	// the command or fails with SCARD_E_NOT_TRANSACTED when it is used.
	EscapeACS Escape = "acs"
)

// ControlCode resolves the escape to the host platform's control code.
func (e Escape) ControlCode() uint32 {
	if e == EscapeACS {
		return scard.CtlCode(2079)
	}
	return scard.CtlCode(3500)
}

// DisableBuzzer turns off the beep on tag detection. It needs a direct
// connection or a connection to a present tag.
func DisableBuzzer(c Controller, escape Escape) error {
	if _, err := c.Control(escape.ControlCode(), cmdDisableBuzzer); err != nil {
		return err
	}
	logging.Info(logging.CatReader, "Buzzer disabled", map[string]any{"escape": string(escape)})
	return nil
}

// UID is the identifier of a detected tag.
type UID struct {
	Bytes    []byte
	Response []byte
}

func (u UID) String() string {
	return FormatHex(u.Bytes)
}

// uidTrailerOffsets are the trailer positions for single, double and triple size UIDs.
var uidTrailerOffsets = []int{4, 7, 10}

// MatchUIDTrailer returns the UID length implied by the first 90 00
// trailer found at a single, double or triple UID position.
// Positions beyond the end of rsp are skipped.
func MatchUIDTrailer(rsp []byte) (int, bool) {
	for _, off := range uidTrailerOffsets {
		if len(rsp) < off+2 {
			break
		}
		if rsp[off] == SW1Success && rsp[off+1] == SW2Success {
			return off, true
		}
	}
	return 0, false
}

// GetUID reads the tag UID. A response without a recognised 90 00 trailer
// is a TrailerMismatchError, not a ServiceError.
func GetUID(t Transmitter) (UID, error) {
	rsp, err := t.Transmit(cmdGetUID)
	if err != nil {
		return UID{}, err
	}

	n, ok := MatchUIDTrailer(rsp)
	if !ok {
		logging.Warn(logging.CatCard, "GET UID returned unexpected trailer", map[string]any{
			"response": FormatHex(rsp),
		})
		return UID{}, &TrailerMismatchError{Response: rsp}
	}

	uid := UID{Bytes: append([]byte(nil), rsp[:n]...), Response: rsp}
	logging.Info(logging.CatCard, "Tag UID read", map[string]any{"uid": uid.String()})
	return uid, nil
}

// ATS is the Answer To Select of an ISO 14443-4 tag.
type ATS struct {
	Response  []byte
	Supported bool
}

// GetATS asks the reader for the tag's ATS. Tags that are not ISO 14443-4
// answer 6A 81; that is reported through Supported, not as an error.
func GetATS(t Transmitter) (ATS, error) {
	rsp, err := t.Transmit(cmdGetATS)
	if err != nil {
		return ATS{}, err
	}

	ats := ATS{Response: rsp, Supported: true}
	if n := len(rsp); n >= 2 && rsp[n-2] == 0x6A && rsp[n-1] == 0x81 {
		ats.Supported = false
		logging.Info(logging.CatCard, "ATS not supported by tag", nil)
	}
	return ats, nil
}

// GetStatus queries the connection's cached reader state and ATR.
func GetStatus(s StatusReader) (SmartCardStatus, error) {
	st, err := s.Status()
	if err != nil {
		return SmartCardStatus{}, err
	}
	logging.Debug(logging.CatCard, "Card status", map[string]any{
		"reader":   st.Reader,
		"state":    st.State,
		"protocol": st.ActiveProtocol,
		"atr":      FormatHex(st.Atr),
	})
	return st, nil
}

// SendRaw transmits an arbitrary APDU without interpreting the response.
func SendRaw(t Transmitter, cmd []byte) ([]byte, error) {
	return t.Transmit(cmd)
}
