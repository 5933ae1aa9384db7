// Package diag runs the reader diagnostic: select the reader, wait for a
// tag, read it out and print every step.
package diag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SimplyPrint/nfc-diag/internal/config"
	"github.com/SimplyPrint/nfc-diag/internal/core"
	"github.com/SimplyPrint/nfc-diag/internal/data"
	"github.com/SimplyPrint/nfc-diag/internal/logging"
)

// Exit codes returned by Run
const (
	ExitOK     = 0
	ExitFailed = 1
)

// Options configures a diagnostic run.
type Options struct {
	Factory core.ContextFactory
	Out     io.Writer
	Config  *config.Config
	// Clock paces the tag wait; nil uses the real clock.
	Clock core.Clock
}

type runner struct {
	opts Options
	out  io.Writer
	cfg  *config.Config
}

// Run executes the diagnostic and returns the process exit code.
func Run(ctx context.Context, opts Options) int {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	r := &runner{opts: opts, out: opts.Out, cfg: opts.Config}

	logging.Info(logging.CatSystem, "Diagnostic started", map[string]any{
		"model":  r.cfg.Model,
		"buzzer": string(r.cfg.Buzzer),
		"escape": string(r.cfg.Escape),
	})
	code := r.run(ctx)
	logging.Info(logging.CatSystem, "Diagnostic finished", map[string]any{"exitCode": code})
	return code
}

func (r *runner) run(ctx context.Context) int {
	s, err := core.OpenSession(r.opts.Factory, r.out)
	if err != nil {
		r.printf("Failed to establish context: %s\n", describeUpper(err))
		return ExitFailed
	}
	defer s.Close()

	reader, ok := r.selectReader(s)
	if !ok {
		return ExitFailed
	}

	if r.cfg.Buzzer == config.BuzzerDirect {
		r.disableBuzzerDirect(s, reader.Name)
	}

	var opts []core.ConnectorOption
	opts = append(opts, core.WithRetryInterval(r.cfg.RetryInterval))
	if r.opts.Clock != nil {
		opts = append(opts, core.WithClock(r.opts.Clock))
	}

	conn, err := core.NewConnector(s, reader.Name, r.out, opts...).Connect(ctx)
	if err != nil {
		logging.Warn(logging.CatReader, "Tag wait aborted", map[string]any{"error": err.Error()})
		return ExitFailed
	}
	defer conn.Close()

	r.printf("Connected to reader: %s\n", conn.Reader())
	r.printf("Detected NFC tag\n")

	if r.cfg.Buzzer == config.BuzzerCard {
		r.disableBuzzer(conn)
	}

	if !r.readTag(conn) {
		return ExitFailed
	}

	r.sendExtra(conn)
	return ExitOK
}

// selectReader lists the readers and checks the first one against the
// configured model.
func (r *runner) selectReader(s *core.Session) (core.Reader, bool) {
	readers, err := s.ListReaders()
	if err != nil {
		if core.ServiceCode(err) == core.CodeNoReadersAvailable {
			r.printf("Failed to list readers: Are you sure your smart card reader is connected and turned on?\n")
		} else {
			r.printf("Failed to list readers: %s\n", describeUpper(err))
		}
		return core.Reader{}, false
	}

	if len(readers) > 0 && readers[0].Name != "" {
		r.printf("Available Smart Card Readers:\n")
		for _, rd := range readers {
			r.printf("- %s\n", rd.Name)
		}
	}

	reader, err := core.SelectReader(readers, r.cfg.Model)
	if err != nil {
		var cfgErr *core.ConfigurationError
		if errors.As(err, &cfgErr) && cfgErr.Kind == core.WrongModel {
			r.printf("Your reader does not seem to be an %s, cancelling program execution!\n", modelLabel(r.cfg.Model))
			r.printValidatedHint()
		} else {
			r.printf("No readers found.\n")
		}
		return core.Reader{}, false
	}

	if entry, ok := data.FindReader(reader.Name); ok {
		logging.Info(logging.CatReader, "Reader selected", map[string]any{
			"reader":    reader.Name,
			"model":     entry.Name,
			"validated": entry.Validated,
		})
	} else {
		logging.Warnf(logging.CatReader, "Reader %q is not in the supported reader list", reader.Name)
	}
	return reader, true
}

func (r *runner) printValidatedHint() {
	validated, err := data.ValidatedReaders()
	if err != nil || len(validated) == 0 {
		return
	}
	names := make([]string, len(validated))
	for i, v := range validated {
		names[i] = v.Name
	}
	r.printf("Validated readers: %s\n", strings.Join(names, ", "))
}

func (r *runner) disableBuzzerDirect(s *core.Session, reader string) {
	conn, err := s.ConnectDirect(reader)
	if err != nil {
		r.printf("Failed to disable buzzer of %s: %s\n", modelLabel(r.cfg.Model), describeBuzzer(err))
		return
	}
	defer conn.Close()
	r.disableBuzzer(conn)
}

// disableBuzzer is best effort; failure only prints a line.
func (r *runner) disableBuzzer(c core.Controller) {
	if err := core.DisableBuzzer(c, r.cfg.Escape); err != nil {
		r.printf("Failed to disable buzzer of %s: %s\n", modelLabel(r.cfg.Model), describeBuzzer(err))
		return
	}
	r.printf("Disabled buzzer of reader\n")
}

// readTag runs GET UID, GET ATS and the status query, stopping at the
// first failure.
func (r *runner) readTag(conn *core.Conn) bool {
	uid, err := core.GetUID(conn)
	if err != nil {
		if core.IsTrailerMismatch(err) {
			r.printf("Failed to get UID of tag: %s did not return the expected 90 00 return code!\n", modelLabel(r.cfg.Model))
		} else {
			r.printf("Failed to get UID of tag: %s\n", describe(err))
		}
		return false
	}
	r.printf("UID of detected NFC tag: %s\n", uid)

	ats, err := core.GetATS(conn)
	if err != nil {
		r.printf("Failed to get ATS of tag: %s\n", describe(err))
		return false
	}
	if !ats.Supported {
		r.printf("Accessing ATS of this tag is not supported!\n")
	}

	st, err := core.GetStatus(conn)
	if err != nil {
		r.printf("Failed to get status of tag: %s\n", describe(err))
		return false
	}
	r.printf("Status of detected NFC tag: %s\n", core.FormatHex(st.Atr))

	kind, err := core.ClassifyStatus(st.Atr)
	if err != nil {
		r.printf("Failed to get status of tag: %v\n", err)
		return false
	}
	if kind.Identified() {
		r.printf("Identified tag as: %s\n", kind)
	} else {
		r.printf("Failed to identify the tag\n")
	}
	logging.Info(logging.CatCard, "Tag read out", map[string]any{
		"uid":  uid.String(),
		"kind": kind.String(),
	})
	return true
}

// sendExtra transmits the -send APDUs. Failures are reported and skipped.
func (r *runner) sendExtra(conn *core.Conn) {
	for _, cmd := range r.cfg.Send {
		r.printf("Sending APDU: %s\n", core.FormatHex(cmd))
		rsp, err := core.SendRaw(conn, cmd)
		if err != nil {
			r.printf("Failed to send APDU: %s\n", describe(err))
			continue
		}
		if n := len(rsp); n >= 2 {
			result := "FAILED"
			if rsp[n-2] == core.SW1Success && rsp[n-1] == core.SW2Success {
				result = "SUCCESS"
			}
			r.printf("  Status: %02X %02X (%s)\n", rsp[n-2], rsp[n-1], result)
		}
	}
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// describe renders a service failure as its raw code, or the error text
// when no code is attached.
func describe(err error) string {
	if code := core.ServiceCode(err); code != 0 {
		return fmt.Sprintf("0x%x", code)
	}
	var svc *core.ServiceError
	if errors.As(err, &svc) && svc.Err != nil {
		return svc.Err.Error()
	}
	return err.Error()
}

// describeUpper is describe with the code in upper case, as printed for
// session setup failures.
func describeUpper(err error) string {
	if code := core.ServiceCode(err); code != 0 {
		return fmt.Sprintf("0x%X", code)
	}
	return describe(err)
}

func describeBuzzer(err error) string {
	if core.ServiceCode(err) == core.CodeNotTransacted {
		return "SCARD_E_NOT_TRANSACTED - An attempt was made to end a nonexistent transaction."
	}
	return describe(err)
}

// modelLabel names the expected reader in messages. The default model
// fragment is printed as the full product name.
func modelLabel(model string) string {
	if model == core.DefaultReaderModel {
		return "ACR122U"
	}
	if model == "" {
		return "supported reader"
	}
	return model
}
