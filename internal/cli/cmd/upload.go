package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
	"github.com/metaa35/qrwedding-sub000/internal/cli/output"
)

var uploadFlags struct {
	qrID     string
	event    string
	name     string
	message  string
	maxFiles int
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload photos or videos to an event",
	Long: `Upload one or more files to an event. Guests upload with the event's
QR id and need no account; logged-in hosts may upload by event name.

  eventctl upload photo.jpg --qr qr_Alice_Wedding_1718000000000 --name Ayşe --message "Tebrikler!"
  eventctl upload *.jpg --qr qr_Alice_Wedding_1718000000000
  eventctl upload clip.mp4 --event "Alice Wedding"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadFlags.qrID, "qr", "", "Event QR id (qr_...)")
	uploadCmd.Flags().StringVar(&uploadFlags.event, "event", "", "Event name (required without --qr)")
	uploadCmd.Flags().StringVar(&uploadFlags.name, "name", "", "Your name as shown in the gallery")
	uploadCmd.Flags().StringVar(&uploadFlags.message, "message", "", "A message for the hosts")
	uploadCmd.Flags().IntVar(&uploadFlags.maxFiles, "batch", 10, "Files per request")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadFlags.qrID == "" {
		if uploadFlags.event == "" {
			return fmt.Errorf("one of --qr or --event is required")
		}
		if err := requireSession(); err != nil {
			return err
		}
	} else if !sess.HasToken() || sess.Stale(now()) {
		// Guests need no account, and a stale token is not sent along.
		apiClient.Token = ""
	}

	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", p)
		}
	}

	eventName := uploadFlags.event
	if eventName == "" {
		var resp api.ValidateResponse
		if err := apiClient.Get("/qr/validate/"+url.PathEscape(uploadFlags.qrID), nil, &resp); err != nil {
			return fmt.Errorf("validating QR code: %w", err)
		}
		eventName = resp.EventData.EventName
	}

	fields := map[string]string{
		"eventName":    eventName,
		"uploaderName": uploadFlags.name,
		"message":      uploadFlags.message,
	}
	if uploadFlags.qrID != "" {
		fields["qrId"] = uploadFlags.qrID
	}

	batch := uploadFlags.maxFiles
	if batch < 1 {
		batch = 1
	}

	var uploaded []api.UploadedFile
	var failed []api.FailedFile
	for start := 0; start < len(args); start += batch {
		end := start + batch
		if end > len(args) {
			end = len(args)
		}
		files, fails, err := uploadBatch(args[start:end], fields)
		if err != nil {
			return err
		}
		uploaded = append(uploaded, files...)
		failed = append(failed, fails...)
	}

	if flagJSON {
		output.JSON(api.UploadResponse{Envelope: api.Envelope{Success: len(uploaded) > 0}, Files: uploaded, Failed: failed})
	} else {
		for _, f := range uploaded {
			printf("  Uploaded: %s (%s)\n", f.Name, output.FormatSize(f.Size))
		}
		for _, f := range failed {
			printf("  Failed: %s: %s\n", f.Name, f.Message)
		}
		printf("\nDone: %d uploaded, %d failed\n", len(uploaded), len(failed))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d file(s) failed to upload", len(failed))
	}
	return nil
}

func uploadBatch(paths []string, fields map[string]string) ([]api.UploadedFile, []api.FailedFile, error) {
	if len(paths) == 1 {
		var resp struct {
			api.Envelope
			File api.UploadedFile `json:"file"`
		}
		if err := apiClient.Upload("/upload/single", "file", paths, fields, &resp); err != nil {
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && !apiErr.Unauthorized() {
				return nil, []api.FailedFile{{Name: filepath.Base(paths[0]), Message: apiErr.Message, Code: apiErr.Code}}, nil
			}
			return nil, nil, fmt.Errorf("uploading %s: %w", filepath.Base(paths[0]), err)
		}
		return []api.UploadedFile{resp.File}, nil, nil
	}

	var resp api.UploadResponse
	if err := apiClient.Upload("/upload/multiple", "files", paths, fields, &resp); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && !apiErr.Unauthorized() {
			failed := make([]api.FailedFile, 0, len(paths))
			for _, p := range paths {
				failed = append(failed, api.FailedFile{Name: filepath.Base(p), Message: apiErr.Message, Code: apiErr.Code})
			}
			return nil, failed, nil
		}
		return nil, nil, fmt.Errorf("uploading batch: %w", err)
	}
	return resp.Files, resp.Failed, nil
}
