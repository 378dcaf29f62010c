// Package drive uploads workbook and receipt image files into a dedicated
// "Boleta Scanner" folder on Google Drive.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vickotoAguilera/BoletasScaner/constants"
	"github.com/vickotoAguilera/BoletasScaner/internal/common"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
)

const (
	// FolderName is the app folder every upload lands in.
	FolderName = "Boleta Scanner"

	folderMIMEType = "application/vnd.google-apps.folder"
)

type Client struct {
	svc    *gdrive.Service
	logger *slog.Logger

	// folderID caches the app folder lookup for the life of the client.
	folderID string
}

// NewFromEnv creates a Drive client using service account credentials.
// Reads GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func NewFromEnv(ctx context.Context, logger *slog.Logger) (*Client, error) {
	credentialsJSON, err := readCredentials()
	if err != nil {
		return nil, err
	}
	svc, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc, logger: logger}, nil
}

func readCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, common.NewAppError("DRIVE_CREDENTIALS",
			"missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)", nil)
	}
	credentialsJSON, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentialsJSON, nil
}

// AppFolderID returns the id of the app folder, creating it when absent.
// The first successful lookup is cached.
func (c *Client) AppFolderID(ctx context.Context) (string, error) {
	if c.folderID != "" {
		return c.folderID, nil
	}
	query := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", FolderName, folderMIMEType)
	list, err := c.svc.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search app folder: %w", err)
	}
	if len(list.Files) > 0 {
		c.folderID = list.Files[0].Id
		return c.folderID, nil
	}
	created, err := c.svc.Files.Create(&gdrive.File{
		Name:     FolderName,
		MimeType: folderMIMEType,
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create app folder: %w", err)
	}
	c.logger.Info("drive.folder.created", "folder_id", created.Id)
	c.folderID = created.Id
	return c.folderID, nil
}

// Upload puts content into the app folder and returns the Drive file id.
func (c *Client) Upload(ctx context.Context, name, mimeType string, content []byte) (string, error) {
	folderID, err := c.AppFolderID(ctx)
	if err != nil {
		return "", err
	}
	meta := &gdrive.File{
		Name:    name,
		Parents: []string{folderID},
	}
	file, err := c.svc.Files.Create(meta).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id").Context(ctx).Do()
	if err != nil {
		c.logger.Error("drive.upload.failed", "name", name, "error", err)
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	c.logger.Info("drive.upload.ok", "name", name, "file_id", file.Id, "size", len(content))
	return file.Id, nil
}

// UploadWorkbook uploads an exported workbook; filename must already carry
// the .xlsx extension.
func (c *Client) UploadWorkbook(ctx context.Context, filename string, content []byte) (string, error) {
	return c.Upload(ctx, filename, constants.XLSXMIMEType, content)
}

// UploadReceiptImage uploads a receipt photo named after its record id.
func (c *Client) UploadReceiptImage(ctx context.Context, receiptID string, mimeType string, content []byte) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	name := fmt.Sprintf("boleta_%s_%d%s", receiptID, time.Now().UnixMilli(), extensionFor(mimeType))
	return c.Upload(ctx, name, mimeType, content)
}

func extensionFor(mimeType string) string {
	switch constants.NormalizeMIME(mimeType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
