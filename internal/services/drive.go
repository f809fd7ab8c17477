package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/metaa35/qrwedding-sub000/internal/models"
	"github.com/metaa35/qrwedding-sub000/internal/storage"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
	"github.com/metaa35/qrwedding-sub000/pkg/logger"
)

// DriveService models the upload drive: one root folder, one folder per event
// under it, and files inside event folders. Node rows live in the database and
// file bytes in the object store.
type DriveService struct {
	DB       *gorm.DB
	Store    storage.ObjectStore
	RootName string

	mu     sync.RWMutex
	rootID uuid.UUID
	group  singleflight.Group
}

func NewDriveService(db *gorm.DB, store storage.ObjectStore, rootName string) *DriveService {
	return &DriveService{DB: db, Store: store, RootName: rootName}
}

// EnsureRoot finds or creates the root folder. Concurrent first calls share a
// single lookup.
func (d *DriveService) EnsureRoot(ctx context.Context) (uuid.UUID, error) {
	d.mu.RLock()
	id := d.rootID
	d.mu.RUnlock()
	if id != uuid.Nil {
		return id, nil
	}

	v, err, _ := d.group.Do("root", func() (interface{}, error) {
		if err := d.Store.EnsureBucket(ctx); err != nil {
			return uuid.Nil, err
		}

		var root models.DriveNode
		err := d.DB.WithContext(ctx).
			Where("parent_id IS NULL AND name = ? AND is_folder = ?", d.RootName, true).
			Order("created_at ASC").
			First(&root).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			root = models.DriveNode{Name: d.RootName, IsFolder: true}
			err = d.DB.WithContext(ctx).Create(&root).Error
			if err == nil {
				logger.Info("drive_root_created", map[string]interface{}{"name": d.RootName, "id": root.ID.String()})
			}
		}
		if err != nil {
			return uuid.Nil, err
		}

		d.mu.Lock()
		d.rootID = root.ID
		d.mu.Unlock()
		return root.ID, nil
	})
	if err != nil {
		return uuid.Nil, apperr.Upstream("Depolama başlatılamadı", err)
	}
	return v.(uuid.UUID), nil
}

// FindFolder returns the event folder named name, or nil when absent.
func (d *DriveService) FindFolder(ctx context.Context, name string) (*models.DriveNode, error) {
	rootID, err := d.EnsureRoot(ctx)
	if err != nil {
		return nil, err
	}

	var folder models.DriveNode
	err = d.DB.WithContext(ctx).
		Where("parent_id = ? AND name = ? AND is_folder = ? AND trashed = ?", rootID, name, true, false).
		Order("created_at ASC").
		First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Upstream("Klasör sorgulanamadı", err)
	}
	return &folder, nil
}

// FindOrCreateFolder reports whether the folder was created by this call.
func (d *DriveService) FindOrCreateFolder(ctx context.Context, name string) (*models.DriveNode, bool, error) {
	folder, err := d.FindFolder(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if folder != nil {
		return folder, false, nil
	}

	rootID, err := d.EnsureRoot(ctx)
	if err != nil {
		return nil, false, err
	}
	folder = &models.DriveNode{ParentID: &rootID, Name: name, IsFolder: true}
	if err := d.DB.WithContext(ctx).Create(folder).Error; err != nil {
		return nil, false, apperr.Upstream("Klasör oluşturulamadı", err)
	}
	logger.Info("drive_folder_created", map[string]interface{}{"name": name, "id": folder.ID.String()})
	return folder, true, nil
}

// RemoveFolderIfEmpty deletes a folder that holds no files.
func (d *DriveService) RemoveFolderIfEmpty(ctx context.Context, folderID uuid.UUID) error {
	var count int64
	if err := d.DB.WithContext(ctx).Model(&models.DriveNode{}).Where("parent_id = ?", folderID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return d.DB.WithContext(ctx).Delete(&models.DriveNode{}, "id = ?", folderID).Error
}

// CreateFile streams r into the object store and records the node. When the
// node row cannot be written the stored object is removed again.
func (d *DriveService) CreateFile(ctx context.Context, folderID uuid.UUID, name, mimeType, description string, r io.Reader, size int64) (*models.DriveNode, error) {
	node := models.DriveNode{
		ID:          uuid.New(),
		ParentID:    &folderID,
		Name:        name,
		MimeType:    mimeType,
		Size:        size,
		Description: description,
	}
	node.ObjectKey = folderID.String() + "/" + node.ID.String()

	if err := d.Store.Upload(ctx, node.ObjectKey, r, size, mimeType); err != nil {
		return nil, apperr.Upstream("Dosya depolamaya yüklenemedi", err)
	}

	if err := d.DB.WithContext(ctx).Create(&node).Error; err != nil {
		if delErr := d.Store.Delete(context.WithoutCancel(ctx), node.ObjectKey); delErr != nil {
			logger.Error("drive_orphan_object_cleanup_failed", delErr, map[string]interface{}{"object_key": node.ObjectKey})
		}
		return nil, apperr.Upstream("Dosya kaydı oluşturulamadı", err)
	}
	return &node, nil
}

// ListFiles returns the non-trashed files of a folder, newest first.
func (d *DriveService) ListFiles(ctx context.Context, folderID uuid.UUID) ([]models.DriveNode, error) {
	var nodes []models.DriveNode
	err := d.DB.WithContext(ctx).
		Where("parent_id = ? AND is_folder = ? AND trashed = ?", folderID, false, false).
		Order("created_at DESC").
		Find(&nodes).Error
	if err != nil {
		return nil, apperr.Upstream("Dosyalar listelenemedi", err)
	}
	return nodes, nil
}

func (d *DriveService) GetFile(ctx context.Context, id uuid.UUID) (*models.DriveNode, error) {
	var node models.DriveNode
	err := d.DB.WithContext(ctx).Where("id = ? AND is_folder = ?", id, false).First(&node).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "Dosya bulunamadı")
		}
		return nil, apperr.Upstream("Dosya sorgulanamadı", err)
	}
	return &node, nil
}

func (d *DriveService) GetFolder(ctx context.Context, id uuid.UUID) (*models.DriveNode, error) {
	var node models.DriveNode
	if err := d.DB.WithContext(ctx).Where("id = ? AND is_folder = ?", id, true).First(&node).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "Klasör bulunamadı")
		}
		return nil, apperr.Upstream("Klasör sorgulanamadı", err)
	}
	return &node, nil
}

func (d *DriveService) OpenFile(ctx context.Context, node *models.DriveNode) (io.ReadCloser, error) {
	rc, err := d.Store.Open(ctx, node.ObjectKey)
	if err != nil {
		return nil, apperr.Upstream("Dosya okunamadı", err)
	}
	return rc, nil
}

// DeleteFile removes the object and its node. An object already missing from
// the store does not block removing the node.
func (d *DriveService) DeleteFile(ctx context.Context, node *models.DriveNode) error {
	if err := d.Store.Delete(ctx, node.ObjectKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return apperr.Upstream("Dosya depolamadan silinemedi", err)
	}
	if err := d.DB.WithContext(ctx).Delete(&models.DriveNode{}, "id = ?", node.ID).Error; err != nil {
		return apperr.Upstream("Dosya kaydı silinemedi", err)
	}
	return nil
}

// ShareFolder marks every file in the folder shared and returns how many
// files it holds.
func (d *DriveService) ShareFolder(ctx context.Context, folderID uuid.UUID) (int64, error) {
	result := d.DB.WithContext(ctx).Model(&models.DriveNode{}).
		Where("parent_id = ? AND is_folder = ? AND trashed = ?", folderID, false, false).
		Update("shared", true)
	if result.Error != nil {
		return 0, apperr.Upstream("Dosyalar paylaşılamadı", result.Error)
	}
	return result.RowsAffected, nil
}
