package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SimplyPrint/nfc-diag/internal/core"
	"github.com/SimplyPrint/nfc-diag/internal/logging"
)

// BuzzerMode selects when the reader's buzzer is switched off.
type BuzzerMode string

const (
	// BuzzerDirect disables the buzzer over a direct connection before waiting for a tag.
	BuzzerDirect BuzzerMode = "direct"
	// BuzzerCard disables it over the tag connection, after a tag was detected.
	BuzzerCard BuzzerMode = "card"
	// BuzzerOff leaves the buzzer alone.
	BuzzerOff BuzzerMode = "off"
)

const (
	DefaultModel    = core.DefaultReaderModel
	DefaultBuzzer   = BuzzerDirect
	DefaultEscape   = core.EscapeMicrosoft
	DefaultRetry    = core.MinRetryInterval
	DefaultLogLevel = logging.LevelInfo
)

// Config holds the settings for one diagnostic run.
type Config struct {
	Model         string
	Buzzer        BuzzerMode
	Escape        core.Escape
	RetryInterval time.Duration
	Send          [][]byte
	DumpLog       bool
	LogLevel      logging.Level
	ShowVersion   bool
}

// Default returns the configuration used when no flags are given.
func Default() *Config {
	return &Config{
		Model:         DefaultModel,
		Buzzer:        DefaultBuzzer,
		Escape:        DefaultEscape,
		RetryInterval: DefaultRetry,
		LogLevel:      DefaultLogLevel,
	}
}

// ErrUnexpectedArgs is returned for positional arguments. The flag set
// reports its own parse errors to the usage writer; this one it does not.
var ErrUnexpectedArgs = errors.New("unexpected arguments")

// apduList collects repeated -send flags.
type apduList [][]byte

func (l *apduList) String() string {
	parts := make([]string, len(*l))
	for i, b := range *l {
		parts[i] = core.FormatHex(b)
	}
	return strings.Join(parts, ", ")
}

func (l *apduList) Set(s string) error {
	b, err := core.ParseHex(s)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return fmt.Errorf("empty APDU")
	}
	*l = append(*l, b)
	return nil
}

// Load parses command line arguments (without the program name).
// Unknown or malformed values fall back to defaults; unknown flags and
// unparseable APDUs are errors. Usage text goes to usage.
func Load(args []string, usage io.Writer) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("nfc-diag", flag.ContinueOnError)
	fs.SetOutput(usage)

	model := fs.String("model", DefaultModel, "required fragment of the reader name (case-sensitive, empty accepts any reader)")
	buzzer := fs.String("buzzer", string(DefaultBuzzer), "when to disable the buzzer: direct, card or off")
	escape := fs.String("escape", string(DefaultEscape), "escape code for reader control: microsoft (3500) or acs (2079)")
	retry := fs.Duration("retry", DefaultRetry, "interval between connect attempts while waiting for a tag (minimum 50ms)")
	logLevel := fs.String("log-level", DefaultLogLevel.String(), "minimum level for -log: debug, info, warn or error")
	var send apduList
	fs.Var(&send, "send", "extra raw APDU in hex to send after the read-out (repeatable)")
	fs.BoolVar(&cfg.DumpLog, "log", false, "write the structured log as JSON lines to stderr on exit")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedArgs, strings.Join(fs.Args(), " "))
	}

	cfg.Model = *model

	switch mode := BuzzerMode(strings.ToLower(*buzzer)); mode {
	case BuzzerDirect, BuzzerCard, BuzzerOff:
		cfg.Buzzer = mode
	}

	switch esc := core.Escape(strings.ToLower(*escape)); esc {
	case core.EscapeMicrosoft, core.EscapeACS:
		cfg.Escape = esc
	}

	cfg.RetryInterval = max(*retry, core.MinRetryInterval)

	if level, ok := logging.ParseLevel(*logLevel); ok {
		cfg.LogLevel = level
	}

	cfg.Send = send
	return cfg, nil
}
