// Package coretest provides PC/SC context and card fakes for tests of
// packages built on core.
package coretest

import (
	"encoding/hex"
	"errors"

	"github.com/ebfe/scard"

	"github.com/SimplyPrint/nfc-diag/internal/core"
)

// Commands the fake tag answers from its captured data
var (
	cmdGetUID = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}
	cmdGetATS = []byte{0xFF, 0xCA, 0x01, 0x00, 0x00}
)

// Mock data from real NFC tags read from hardware:
// ACR122U: MIFARE Classic - UID: 932bae0e, ATR: 3b8f8001804f0ca000000306030001000000006a
// ACR1552: ISO 15693 (SLIX) - UID: 80391566080104e0, ATR: 3b8f8001804f0ca0000003060b00140000000077
// ACR1252: NTAG213 - UID: 0442488a837280, ATR: 3b8f8001804f0ca0000003060300030000000068

// ReaderNames are reader names as enumerated by pcsc-lite for the captured hardware.
var ReaderNames = []string{
	"ACS ACR122U PICC Interface",
	"ACS ACR1552 1S CL Reader PICC",
	"ACS ACR1252 Dual Reader PICC",
}

// MockCardData represents mock NFC card data for testing
type MockCardData struct {
	UID string
	ATR string
	ATS string // full response to GET ATS, trailer included
}

var mockCardData = map[string]MockCardData{
	"NTAG213": {
		UID: "0442488a837280",
		ATR: "3b8f8001804f0ca0000003060300030000000068",
		ATS: "6a81",
	},
	"NTAG215": {
		UID: "04635d6bc22a81",
		ATR: "3b8f8001804f0ca0000003060300030000000068",
		ATS: "6a81",
	},
	"NTAG216": {
		UID: "5397e01aa20001",
		ATR: "3b8f8001804f0ca0000003060300030000000068",
		ATS: "6a81",
	},
	"MIFARE Classic": {
		UID: "932bae0e",
		ATR: "3b8f8001804f0ca000000306030001000000006a",
		ATS: "6a81",
	},
	"ISO 15693": {
		UID: "80391566080104e0",
		ATR: "3b8f8001804f0ca0000003060b00140000000077",
		ATS: "6a81",
	},
	// ISO 14443-4 tags report a short ATR without PC/SC card name bytes
	"DESFire": {
		UID: "04524a2a8b6480",
		ATR: "3b8180018080",
		ATS: "0675778102809000",
	},
}

// MockCard simulates a connected tag, or the reader itself for direct connections.
type MockCard struct {
	Type         string
	reader       string
	atr          []byte
	responses    map[string][]byte
	transmitErr  error
	controlErr   error
	statusErr    error
	disconnected bool

	Transmitted  [][]byte
	ControlCodes []uint32
}

// NewMockCard creates a card from captured hardware data. Unknown types get
// an empty ATR and answer no commands.
func NewMockCard(cardType string) *MockCard {
	c := &MockCard{
		Type:      cardType,
		responses: make(map[string][]byte),
	}

	data, ok := mockCardData[cardType]
	if !ok {
		return c
	}

	c.atr = mustDecodeHex(data.ATR)
	c.responses[hex.EncodeToString(cmdGetUID)] = append(mustDecodeHex(data.UID), core.SW1Success, core.SW2Success)
	c.responses[hex.EncodeToString(cmdGetATS)] = mustDecodeHex(data.ATS)
	return c
}

// WithResponse sets the raw response returned for cmd.
func (c *MockCard) WithResponse(cmd, rsp []byte) *MockCard {
	c.responses[hex.EncodeToString(cmd)] = rsp
	return c
}

// WithUIDResponse sets the raw response to GET UID.
func (c *MockCard) WithUIDResponse(rsp []byte) *MockCard {
	return c.WithResponse(cmdGetUID, rsp)
}

// WithATR replaces the ATR reported by Status.
func (c *MockCard) WithATR(atr []byte) *MockCard {
	c.atr = atr
	return c
}

// WithError makes every Transmit fail with err.
func (c *MockCard) WithError(err error) *MockCard {
	c.transmitErr = err
	return c
}

// WithControlError makes Control fail with err.
func (c *MockCard) WithControlError(err error) *MockCard {
	c.controlErr = err
	return c
}

// WithStatusError makes Status fail with err.
func (c *MockCard) WithStatusError(err error) *MockCard {
	c.statusErr = err
	return c
}

// Disconnected reports whether Disconnect was called.
func (c *MockCard) Disconnected() bool {
	return c.disconnected
}

func (c *MockCard) Transmit(cmd []byte) ([]byte, error) {
	if c.disconnected {
		return nil, scard.Error(0x80100003) // SCARD_E_INVALID_HANDLE
	}
	c.Transmitted = append(c.Transmitted, append([]byte(nil), cmd...))
	if c.transmitErr != nil {
		return nil, c.transmitErr
	}
	if rsp, ok := c.responses[hex.EncodeToString(cmd)]; ok {
		return append([]byte(nil), rsp...), nil
	}
	// INS not supported
	return []byte{0x6D, 0x00}, nil
}

func (c *MockCard) Control(code uint32, cmd []byte) ([]byte, error) {
	if c.disconnected {
		return nil, scard.Error(0x80100003)
	}
	c.ControlCodes = append(c.ControlCodes, code)
	if c.controlErr != nil {
		return nil, c.controlErr
	}
	return []byte{core.SW1Success, core.SW2Success}, nil
}

func (c *MockCard) Status() (core.SmartCardStatus, error) {
	if c.statusErr != nil {
		return core.SmartCardStatus{}, c.statusErr
	}
	return core.SmartCardStatus{
		Reader:         c.reader,
		ActiveProtocol: core.ProtocolT1,
		Atr:            append([]byte(nil), c.atr...),
	}, nil
}

func (c *MockCard) Disconnect(disposition uint32) error {
	c.disconnected = true
	return nil
}

// MockConnect records one Connect call on a MockContext.
type MockConnect struct {
	Reader    string
	ShareMode uint32
}

// MockContext simulates a PC/SC context with a fixed set of readers.
type MockContext struct {
	readers     []string
	listErr     error
	cards       map[string]*MockCard
	direct      map[string]*MockCard
	connectErrs []error
	directErr   error

	Connects []MockConnect
	Released int
}

// NewMockContext creates a context with a single ACR122U attached and no tag.
func NewMockContext() *MockContext {
	return &MockContext{
		readers: []string{"ACS ACR122U PICC Interface"},
		cards:   make(map[string]*MockCard),
		direct:  make(map[string]*MockCard),
	}
}

// WithReaders replaces the enumerated reader names.
func (c *MockContext) WithReaders(readers []string) *MockContext {
	c.readers = readers
	return c
}

// WithListError makes ListReaders fail with err.
func (c *MockContext) WithListError(err error) *MockContext {
	c.listErr = err
	return c
}

// WithError makes ListReaders fail with a plain error carrying msg.
func (c *MockContext) WithError(msg string) *MockContext {
	return c.WithListError(errors.New(msg))
}

// WithCard places card on reader.
func (c *MockContext) WithCard(reader string, card *MockCard) *MockContext {
	card.reader = reader
	c.cards[reader] = card
	return c
}

// WithConnectErrors makes the next shared connects fail with errs, in order.
func (c *MockContext) WithConnectErrors(errs ...error) *MockContext {
	c.connectErrs = append(c.connectErrs, errs...)
	return c
}

// WithDirectError makes direct connects fail with err.
func (c *MockContext) WithDirectError(err error) *MockContext {
	c.directErr = err
	return c
}

// DirectCard returns the handle given out for direct connections to reader,
// or nil if none was made.
func (c *MockContext) DirectCard(reader string) *MockCard {
	return c.direct[reader]
}

// ConnectCount returns the number of Connect calls made with shareMode.
func (c *MockContext) ConnectCount(shareMode uint32) int {
	n := 0
	for _, mc := range c.Connects {
		if mc.ShareMode == shareMode {
			n++
		}
	}
	return n
}

func (c *MockContext) ListReaders() ([]string, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]string(nil), c.readers...), nil
}

func (c *MockContext) Connect(reader string, shareMode uint32, protocol uint32) (core.SmartCard, error) {
	c.Connects = append(c.Connects, MockConnect{Reader: reader, ShareMode: shareMode})

	if !c.hasReader(reader) {
		return nil, scard.Error(0x80100009) // SCARD_E_UNKNOWN_READER
	}

	if shareMode == core.ShareDirect {
		if c.directErr != nil {
			return nil, c.directErr
		}
		card := NewMockCard("reader")
		card.reader = reader
		c.direct[reader] = card
		return card, nil
	}

	if len(c.connectErrs) > 0 {
		err := c.connectErrs[0]
		c.connectErrs = c.connectErrs[1:]
		return nil, err
	}

	card, ok := c.cards[reader]
	if !ok {
		return nil, scard.Error(core.CodeNoSmartcard)
	}
	card.disconnected = false
	return card, nil
}

func (c *MockContext) Release() error {
	c.Released++
	return nil
}

func (c *MockContext) hasReader(reader string) bool {
	for _, r := range c.readers {
		if r == reader {
			return true
		}
	}
	return false
}

// MockContextFactory hands out a fixed MockContext, or fails with Err.
type MockContextFactory struct {
	Context *MockContext
	Err     error
}

func (f *MockContextFactory) EstablishContext() (core.SmartCardContext, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Context, nil
}

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
