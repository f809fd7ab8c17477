package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/linktoken"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
)

type AssetView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdTime"`
	ViewLink     string    `json:"viewLink"`
	Shared       bool      `json:"shared"`
	UploaderName string    `json:"uploaderName"`
	EventName    string    `json:"eventName"`
	Message      string    `json:"message"`
}

type GalleryService struct {
	Access *AccessService
	Drive  *DriveService
	Links  *LinkBuilder
}

func NewGalleryService(access *AccessService, drive *DriveService, links *LinkBuilder) *GalleryService {
	return &GalleryService{Access: access, Drive: drive, Links: links}
}

// ListByEvent returns the event's assets newest first. A missing folder is an
// empty gallery.
func (g *GalleryService) ListByEvent(ctx context.Context, target EventTarget) ([]AssetView, error) {
	nodes, err := g.eventFiles(ctx, target)
	if err != nil {
		return nil, err
	}

	views := make([]AssetView, 0, len(nodes))
	for i := range nodes {
		meta := ParseDescription(nodes[i].Description)
		views = append(views, AssetView{
			ID:           nodes[i].ID.String(),
			Name:         nodes[i].Name,
			MimeType:     nodes[i].MimeType,
			Size:         nodes[i].Size,
			CreatedAt:    nodes[i].CreatedAt,
			ViewLink:     g.Links.ViewLink(&nodes[i]),
			Shared:       nodes[i].Shared,
			UploaderName: meta.UploaderName,
			EventName:    meta.EventName,
			Message:      meta.Message,
		})
	}
	return views, nil
}

func (g *GalleryService) eventFiles(ctx context.Context, target EventTarget) ([]models.DriveNode, error) {
	folder, err := g.Drive.FindFolder(ctx, target.FolderKey())
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return []models.DriveNode{}, nil
	}
	return g.Drive.ListFiles(ctx, folder.ID)
}

// DeleteAsset removes an asset the actor manages. An id that no longer exists
// is reported as deleted.
func (g *GalleryService) DeleteAsset(ctx context.Context, actor *models.User, assetID uuid.UUID) error {
	if err := Require(actor, CapabilityGallery); err != nil {
		return err
	}

	node, err := g.Drive.GetFile(ctx, assetID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}

	if node.ParentID != nil {
		folder, err := g.Drive.GetFolder(ctx, *node.ParentID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		folderName := ""
		if folder != nil {
			folderName = folder.Name
		}
		allowed, err := g.Access.CanManageFolder(ctx, actor, folderName)
		if err != nil {
			return err
		}
		if !allowed {
			return apperr.Authorization(apperr.CodeForbidden, "Bu dosyayı silme yetkiniz yok")
		}
	} else if !actor.IsAdmin {
		return apperr.Authorization(apperr.CodeForbidden, "Bu dosyayı silme yetkiniz yok")
	}

	if err := g.Drive.DeleteFile(ctx, node); err != nil {
		return err
	}
	logger.InfoWithUser(actor.ID.String(), "asset_deleted", map[string]interface{}{
		"asset_id": node.ID.String(),
		"name":     node.Name,
	})
	return nil
}

// ShareAll makes every asset of the event viewable by anyone with the link.
func (g *GalleryService) ShareAll(ctx context.Context, target EventTarget) (int64, error) {
	folder, err := g.Drive.FindFolder(ctx, target.FolderKey())
	if err != nil {
		return 0, err
	}
	if folder == nil {
		return 0, nil
	}
	return g.Drive.ShareFolder(ctx, folder.ID)
}

// OpenPublicAsset opens an asset for the public link endpoint. The asset must
// be shared or token must be a valid link token for it.
func (g *GalleryService) OpenPublicAsset(ctx context.Context, assetID uuid.UUID, token string) (*models.DriveNode, io.ReadCloser, error) {
	node, err := g.Drive.GetFile(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	if node.Trashed {
		return nil, nil, apperr.NotFound(apperr.CodeNotFound, "Dosya bulunamadı")
	}

	if !node.Shared {
		if token == "" {
			return nil, nil, apperr.Authorization(apperr.CodeForbidden, "Bu dosya paylaşılmamış")
		}
		if err := linktoken.ValidFor(token, node.ID.String()); err != nil {
			if errors.Is(err, linktoken.ErrExpired) {
				return nil, nil, apperr.Authorization(apperr.CodeForbidden, "Bağlantının süresi dolmuş")
			}
			return nil, nil, apperr.Authorization(apperr.CodeForbidden, "Geçersiz bağlantı")
		}
	}

	rc, err := g.Drive.OpenFile(ctx, node)
	if err != nil {
		return nil, nil, err
	}
	return node, rc, nil
}
