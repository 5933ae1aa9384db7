package core

import (
	"fmt"

	"github.com/ebfe/scard"
)

const (
	ShareShared = uint32(scard.ShareShared)
	ShareDirect = uint32(scard.ShareDirect)
	ProtocolT0  = uint32(scard.ProtocolT0)
	ProtocolT1  = uint32(scard.ProtocolT1)
	LeaveCard   = uint32(scard.LeaveCard)
)

// EstablishContext opens a system-scoped PC/SC context.
func (DefaultContextFactory) EstablishContext() (SmartCardContext, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, err
	}
	return &pcscContext{ctx: ctx}, nil
}

type pcscContext struct {
	ctx *scard.Context
}

func (c *pcscContext) ListReaders() ([]string, error) {
	return c.ctx.ListReaders()
}

func (c *pcscContext) Connect(reader string, shareMode uint32, protocol uint32) (SmartCard, error) {
	card, err := c.ctx.Connect(reader, scard.ShareMode(shareMode), scard.Protocol(protocol))
	if err != nil {
		return nil, err
	}
	return &pcscCard{card: card}, nil
}

func (c *pcscContext) Release() error {
	return c.ctx.Release()
}

type pcscCard struct {
	card *scard.Card
}

func (c *pcscCard) Transmit(cmd []byte) ([]byte, error) {
	// The scard library panics on transmit when no protocol was negotiated,
	// which is the case for direct connections.
	proto := c.card.ActiveProtocol()
	if proto != scard.ProtocolT0 && proto != scard.ProtocolT1 {
		return nil, fmt.Errorf("unsupported card protocol: %d", proto)
	}
	return c.card.Transmit(cmd)
}

func (c *pcscCard) Control(code uint32, cmd []byte) ([]byte, error) {
	return c.card.Control(code, cmd)
}

func (c *pcscCard) Status() (SmartCardStatus, error) {
	st, err := c.card.Status()
	if err != nil {
		return SmartCardStatus{}, err
	}
	return SmartCardStatus{
		Reader:         st.Reader,
		State:          uint32(st.State),
		ActiveProtocol: uint32(st.ActiveProtocol),
		Atr:            st.Atr,
	}, nil
}

func (c *pcscCard) Disconnect(disposition uint32) error {
	return c.card.Disconnect(scard.Disposition(disposition))
}
