package cmd

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
	"github.com/metaa35/qrwedding-sub000/internal/cli/output"
)

var qrFlags struct {
	event   string
	date    string
	message string
	image   string
}

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Create and inspect event QR codes",
}

var qrGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create the QR code for your event",
	Long: `Create the QR code guests scan to upload photos.

  eventctl qr generate --event "Alice Wedding"
  eventctl qr generate --event "Alice Wedding" --date 2025-09-01 --message "Hoş geldiniz" --image qr.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		body := map[string]interface{}{"eventName": qrFlags.event}
		if qrFlags.date != "" {
			body["eventDate"] = qrFlags.date
		}
		if cmd.Flags().Changed("message") {
			body["customMessage"] = qrFlags.message
		}

		var resp api.QRResponse
		if err := apiClient.Post("/qr/generate", body, &resp); err != nil {
			return fmt.Errorf("generating QR code: %w", err)
		}
		return showQR(resp.QRCode)
	},
}

var qrShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your active QR code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		var resp api.UserQRResponse
		if err := apiClient.Get("/qr/user-qr", nil, &resp); err != nil {
			return fmt.Errorf("fetching QR code: %w", err)
		}
		if !resp.HasQR || resp.QRCode == nil {
			if flagJSON {
				output.JSON(resp)
				return nil
			}
			printf("No active QR code. Create one with \"eventctl qr generate\".\n")
			return nil
		}
		return showQR(*resp.QRCode)
	},
}

var qrValidateCmd = &cobra.Command{
	Use:   "validate <qr-id>",
	Short: "Check that a QR id accepts uploads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp api.ValidateResponse
		if err := apiClient.Get("/qr/validate/"+url.PathEscape(args[0]), nil, &resp); err != nil {
			return fmt.Errorf("validating QR code: %w", err)
		}

		if flagJSON {
			output.JSON(resp.EventData)
			return nil
		}
		printf("Valid: %s (%s)\n", resp.EventData.EventName, resp.EventData.QRID)
		return nil
	},
}

func init() {
	qrGenerateCmd.Flags().StringVar(&qrFlags.event, "event", "", "Event name")
	qrGenerateCmd.Flags().StringVar(&qrFlags.date, "date", "", "Event date (YYYY-MM-DD)")
	qrGenerateCmd.Flags().StringVar(&qrFlags.message, "message", "", "Message shown to guests")
	_ = qrGenerateCmd.MarkFlagRequired("event")

	for _, c := range []*cobra.Command{qrGenerateCmd, qrShowCmd} {
		c.Flags().StringVar(&qrFlags.image, "image", "", "Write the QR code PNG to this path")
	}

	qrCmd.AddCommand(qrGenerateCmd, qrShowCmd, qrValidateCmd)
	rootCmd.AddCommand(qrCmd)
}

func showQR(q api.QRCode) error {
	if qrFlags.image != "" {
		if err := writeDataURL(q.QRImage, qrFlags.image); err != nil {
			return fmt.Errorf("writing QR image: %w", err)
		}
	}

	if flagJSON {
		q.QRImage = ""
		output.JSON(q)
		return nil
	}
	output.QRDetail(q)
	if qrFlags.image != "" {
		printf("Image written to %s\n", qrFlags.image)
	}
	return nil
}

// writeDataURL decodes a base64 PNG data URL into path.
func writeDataURL(dataURL, path string) error {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		return fmt.Errorf("unexpected image encoding")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
