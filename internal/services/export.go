package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/xuri/excelize/v2"

	"github.com/metaa35/qrwedding-sub000/internal/metrics"
	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
)

// ZipArchive is an event download whose objects have all been opened. Nothing
// has been written yet, so a failure before WriteTo can still be reported as
// a normal error response.
type ZipArchive struct {
	Name    string
	entries []zipEntry
}

type zipEntry struct {
	node   models.DriveNode
	name   string
	reader io.ReadCloser
}

func (z *ZipArchive) Len() int {
	return len(z.entries)
}

// PrepareZip opens every asset of the event. If any open fails the ones
// already opened are closed and an upstream error is returned.
func (g *GalleryService) PrepareZip(ctx context.Context, target EventTarget) (*ZipArchive, error) {
	nodes, err := g.eventFiles(ctx, target)
	if err != nil {
		return nil, err
	}

	archive := &ZipArchive{Name: slugify(target.EventName) + ".zip"}
	used := make(map[string]bool, len(nodes))
	for i := range nodes {
		rc, err := g.Drive.OpenFile(ctx, &nodes[i])
		if err != nil {
			archive.Close()
			metrics.ZipDownloadsTotal.WithLabelValues("open_failed").Inc()
			return nil, apperr.Upstream("Dosyalar hazırlanamadı", err)
		}
		archive.entries = append(archive.entries, zipEntry{
			node:   nodes[i],
			name:   uniqueEntryName(used, nodes[i].Name),
			reader: rc,
		})
	}
	return archive, nil
}

// WriteTo streams the archive entry by entry. When an entry fails mid-stream
// the central directory is never written, so the output is not a valid ZIP.
// WriteTo closes every reader.
func (z *ZipArchive) WriteTo(w io.Writer) error {
	defer z.Close()

	zw := zip.NewWriter(w)
	for _, entry := range z.entries {
		header := &zip.FileHeader{
			Name:     entry.name,
			Method:   zip.Store,
			Modified: entry.node.CreatedAt,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			metrics.ZipDownloadsTotal.WithLabelValues("stream_failed").Inc()
			return fmt.Errorf("zip header %s: %w", entry.name, err)
		}
		if _, err := io.Copy(fw, entry.reader); err != nil {
			metrics.ZipDownloadsTotal.WithLabelValues("stream_failed").Inc()
			logger.Error("zip_stream_aborted", err, map[string]interface{}{
				"entry": entry.name,
				"asset": entry.node.ID.String(),
			})
			return fmt.Errorf("zip entry %s: %w", entry.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		metrics.ZipDownloadsTotal.WithLabelValues("stream_failed").Inc()
		return fmt.Errorf("zip finish: %w", err)
	}
	metrics.ZipDownloadsTotal.WithLabelValues("success").Inc()
	return nil
}

func (z *ZipArchive) Close() {
	for _, entry := range z.entries {
		if entry.reader != nil {
			_ = entry.reader.Close()
		}
	}
}

// uniqueEntryName appends " (n)" before the extension until the name has not
// been emitted yet, and records the result in used.
func uniqueEntryName(used map[string]bool, name string) string {
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")

	candidate := name
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
	used[candidate] = true
	return candidate
}

// WriteGuestbook writes an XLSX sheet with one row per asset of the event.
func (g *GalleryService) WriteGuestbook(ctx context.Context, w io.Writer, target EventTarget) error {
	views, err := g.ListByEvent(ctx, target)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Error("guestbook_close_failed", err, nil)
		}
	}()

	const sheet = "Anı Defteri"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return apperr.Upstream("Anı defteri oluşturulamadı", err)
	}

	headers := []interface{}{"Misafir", "Mesaj", "Dosya", "Tür", "Boyut (KB)", "Yüklenme Zamanı"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return apperr.Upstream("Anı defteri oluşturulamadı", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", "F1", style)
	}

	for i, view := range views {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperr.Upstream("Anı defteri oluşturulamadı", err)
		}
		row := []interface{}{
			view.UploaderName,
			view.Message,
			view.Name,
			view.MimeType,
			view.Size / 1024,
			view.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperr.Upstream("Anı defteri oluşturulamadı", err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", "B", 60)
	_ = f.SetColWidth(sheet, "C", "C", 48)
	_ = f.SetColWidth(sheet, "F", "F", 20)

	if _, err := f.WriteTo(w); err != nil {
		return apperr.Upstream("Anı defteri yazılamadı", err)
	}
	return nil
}
