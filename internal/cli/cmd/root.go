package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
	"github.com/metaa35/qrwedding-sub000/internal/cli/output"
	"github.com/metaa35/qrwedding-sub000/internal/cli/session"
)

var (
	flagJSON      bool
	flagServerURL string

	sess      *session.Session
	apiClient *api.Client

	now = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "eventctl",
	Short: "Manage event QR codes and guest uploads from the terminal",
	Long: `eventctl talks to the event upload server: create the QR code for
your event, upload photos as a guest and manage the gallery.

Get started:
  eventctl register --username alice --email alice@example.com --company "Alice Events"
  eventctl qr generate --event "Alice Wedding"
  eventctl upload photo.jpg --qr qr_Alice_Wedding_1718000000000 --name Ayşe
  eventctl ls --qr qr_Alice_Wedding_1718000000000`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		sess, err = session.Load()
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		if flagServerURL != "" {
			sess.ServerURL = flagServerURL
		}
		apiClient = api.NewClient(sess.ServerURL, sess.Token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Override server URL (default: from session or "+session.DefaultURL+")")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// requireSession fails unless a token is stored, re-validating it with the
// server when the last check is older than session.RevalidateAfter.
func requireSession() error {
	if sess == nil {
		return fmt.Errorf("not authenticated, run \"eventctl login\" first")
	}
	return sess.Ensure(apiClient, now())
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(output.Stdout, format, args...)
}

// readLine prompts on stderr and reads one line from in.
func readLine(in io.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// eventFlags binds --qr and --event on a gallery command.
type eventFlags struct {
	qrID      string
	eventName string
}

func (f *eventFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.qrID, "qr", "", "Event QR id (qr_...)")
	cmd.Flags().StringVar(&f.eventName, "event", "", "Event name")
}

func (f *eventFlags) query() (api.EventQuery, error) {
	if f.qrID == "" && f.eventName == "" {
		return api.EventQuery{}, fmt.Errorf("one of --qr or --event is required")
	}
	return api.EventQuery{QRID: f.qrID, EventName: f.eventName}, nil
}
