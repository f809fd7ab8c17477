package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
)

// Stdout is where every printer writes. Tests swap it.
var Stdout io.Writer = os.Stdout

// JSON prints v as indented JSON.
func JSON(v interface{}) {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// AssetTable prints a gallery as a table.
func AssetTable(assets []api.Asset) {
	if len(assets) == 0 {
		fmt.Fprintln(Stdout, "No files found.")
		return
	}

	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSIZE\tTYPE\tGUEST\tMESSAGE\tUPLOADED")
	for _, a := range assets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Name, FormatSize(a.Size), shortMIME(a.MimeType),
			a.UploaderName, Truncate(oneLine(a.Message), 40), RelativeTime(a.CreatedAt))
	}
	w.Flush()
}

// QRDetail prints a binding.
func QRDetail(q api.QRCode) {
	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "QR ID:\t%s\n", q.QRID)
	fmt.Fprintf(w, "Event:\t%s\n", q.EventName)
	if q.EventDate != nil {
		fmt.Fprintf(w, "Date:\t%s\n", q.EventDate.Format("2006-01-02"))
	}
	if q.CustomMessage != nil && *q.CustomMessage != "" {
		fmt.Fprintf(w, "Message:\t%s\n", *q.CustomMessage)
	}
	fmt.Fprintf(w, "Upload URL:\t%s\n", q.AccessURL)
	fmt.Fprintf(w, "Gallery URL:\t%s\n", q.GalleryURL)
	fmt.Fprintf(w, "Active:\t%v\n", q.IsActive)
	w.Flush()
}

// UserInfo prints account details.
func UserInfo(u api.User) {
	w := tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Username:\t%s\n", u.Username)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "Company:\t%s\n", u.CompanyName)
	fmt.Fprintf(w, "Admin:\t%v\n", u.IsAdmin)
	fmt.Fprintf(w, "Capabilities:\t%s\n", Capabilities(u))
	fmt.Fprintf(w, "Payment:\t%s\n", u.PaymentStatus)
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	w.Flush()
}

// Capabilities lists the user's granted capabilities.
func Capabilities(u api.User) string {
	var caps []string
	if u.CanCreateQR {
		caps = append(caps, "qr")
	}
	if u.CanUploadFiles {
		caps = append(caps, "upload")
	}
	if u.CanAccessGallery {
		caps = append(caps, "gallery")
	}
	if len(caps) == 0 {
		return "-"
	}
	return strings.Join(caps, ", ")
}

// FormatSize converts bytes to a human-readable string.
func FormatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func shortMIME(mime string) string {
	// "image/jpeg" -> "jpeg", "video/x-msvideo" -> "x-msvideo"
	if _, sub, ok := strings.Cut(mime, "/"); ok {
		return sub
	}
	return mime
}
