package core

// SmartCardContext represents a PC/SC context for listing readers
type SmartCardContext interface {
	ListReaders() ([]string, error)
	Connect(reader string, shareMode uint32, protocol uint32) (SmartCard, error)
	Release() error
}

// SmartCard represents a connection to a reader, with or without a tag present
type SmartCard interface {
	Transmit(cmd []byte) ([]byte, error)
	Control(code uint32, cmd []byte) ([]byte, error)
	Status() (SmartCardStatus, error)
	Disconnect(disposition uint32) error
}

// SmartCardStatus represents the status of a smart card
type SmartCardStatus struct {
	Reader         string
	State          uint32
	ActiveProtocol uint32
	Atr            []byte
}

// ContextFactory creates SmartCardContext instances
// This allows for dependency injection and mocking in tests
type ContextFactory interface {
	EstablishContext() (SmartCardContext, error)
}

// DefaultContextFactory is the production factory that uses real PC/SC
type DefaultContextFactory struct{}

// Transmitter sends an APDU and returns the raw response.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Controller sends a vendor escape command to the reader.
type Controller interface {
	Control(code uint32, cmd []byte) ([]byte, error)
}

// StatusReader returns the cached card status of a connection.
type StatusReader interface {
	Status() (SmartCardStatus, error)
}
