package cmd

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
	"github.com/metaa35/qrwedding-sub000/internal/cli/output"
)

var (
	lsEvent       eventFlags
	downloadEvent eventFlags
	shareEvent    eventFlags
	bookEvent     eventFlags

	flagForce  bool
	flagOutput string
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List an event's gallery",
	Long: `List the photos and videos uploaded to an event, newest first.

  eventctl ls --qr qr_Alice_Wedding_1718000000000
  eventctl ls --event "Alice Wedding"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := lsEvent.query()
		if err != nil {
			return err
		}
		if err := requireSession(); err != nil {
			return err
		}

		var resp api.FilesResponse
		if err := apiClient.Get("/upload/files", q.Values(), &resp); err != nil {
			return fmt.Errorf("listing files: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Files)
			return nil
		}
		output.AssetTable(resp.Files)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete a file from a gallery",
	Long: `Delete an uploaded file by its id (see "eventctl ls").

  eventctl rm 550e8400-e29b-41d4-a716-446655440000
  eventctl rm 550e8400-e29b-41d4-a716-446655440000 --force

This cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		if !flagForce {
			fmt.Fprintf(os.Stderr, "Delete %s? This cannot be undone. [y/N] ", args[0])
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			answer = strings.TrimSpace(strings.ToLower(answer))
			if answer != "y" && answer != "yes" {
				printf("Cancelled.\n")
				return nil
			}
		}

		if err := apiClient.Delete("/upload/files/"+url.PathEscape(args[0]), nil); err != nil {
			return fmt.Errorf("deleting: %w", err)
		}
		printf("Deleted: %s\n", args[0])
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download an event's gallery as a ZIP archive",
	Long: `Download every file of an event as one ZIP archive.

  eventctl download --qr qr_Alice_Wedding_1718000000000
  eventctl download --event "Alice Wedding" -o wedding.zip`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := downloadEvent.query()
		if err != nil {
			return err
		}
		if err := requireSession(); err != nil {
			return err
		}

		dest := flagOutput
		if dest == "" {
			dest = archiveName(q)
		}
		n, err := apiClient.DownloadToFile("/upload/download-all", q.Values(), dest)
		if err != nil {
			return fmt.Errorf("downloading: %w", err)
		}
		printf("Downloaded %s (%s)\n", dest, output.FormatSize(n))
		return nil
	},
}

var shareAllCmd = &cobra.Command{
	Use:   "share-all",
	Short: "Make every file of an event viewable by link (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := shareEvent.query()
		if err != nil {
			return err
		}
		if err := requireSession(); err != nil {
			return err
		}

		var resp api.CountResponse
		if err := apiClient.Post("/upload/share-all?"+q.Values().Encode(), nil, &resp); err != nil {
			return fmt.Errorf("sharing: %w", err)
		}
		if flagJSON {
			output.JSON(resp)
			return nil
		}
		printf("Shared %d file(s)\n", resp.Count)
		return nil
	},
}

var guestbookCmd = &cobra.Command{
	Use:   "guestbook",
	Short: "Export an event's guest messages as an XLSX sheet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := bookEvent.query()
		if err != nil {
			return err
		}
		if err := requireSession(); err != nil {
			return err
		}

		dest := flagOutput
		if dest == "" {
			dest = "ani-defteri.xlsx"
		}
		n, err := apiClient.DownloadToFile("/upload/guestbook", q.Values(), dest)
		if err != nil {
			return fmt.Errorf("exporting guestbook: %w", err)
		}
		printf("Guestbook written to %s (%s)\n", dest, output.FormatSize(n))
		return nil
	},
}

func init() {
	lsEvent.bind(lsCmd)
	downloadEvent.bind(downloadCmd)
	shareEvent.bind(shareAllCmd)
	bookEvent.bind(guestbookCmd)

	rmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")
	downloadCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path")
	guestbookCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path")

	rootCmd.AddCommand(lsCmd, rmCmd, downloadCmd, shareAllCmd, guestbookCmd)
}

// archiveName picks a local file name for an event download.
func archiveName(q api.EventQuery) string {
	base := q.QRID
	if base == "" {
		base = q.EventName
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, base)
	return base + ".zip"
}
