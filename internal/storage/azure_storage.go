package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "go-tamper-inspector/internal/errors"
	"go-tamper-inspector/pkg/models"
)

// AzureBlobScheme prefixes blob references: azblob://<container>/<blob>
const AzureBlobScheme = "azblob"

// AzureStorage downloads images from an Azure storage account
type AzureStorage struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureStorage authenticates with a shared key against the account's
// public blob endpoint
func NewAzureStorage(accountName, accountKey string, maxBytes int64) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net/", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureStorage{client: client, maxBytes: maxBytes}, nil
}

// ParseBlobRef splits azblob://<container>/<blob path> into its parts
func ParseBlobRef(ref string) (container, blob string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob reference", err)
	}
	if u.Scheme != AzureBlobScheme {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("blob reference must use %s://", AzureBlobScheme), nil)
	}

	container = u.Host
	blob = strings.TrimPrefix(u.Path, "/")
	if container == "" || blob == "" {
		return "", "", apperrors.NewValidationError("blob reference needs a container and a blob name", nil)
	}
	return container, blob, nil
}

// Fetch downloads the referenced blob
func (s *AzureStorage) Fetch(ctx context.Context, ref string) (*models.ImageBlob, error) {
	container, blobName, err := ParseBlobRef(ref)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, s.maxBytes)
	if err != nil {
		return nil, err
	}

	blob := &models.ImageBlob{
		Data:   data,
		Name:   baseName(blobName),
		Source: ref,
	}
	if resp.ContentType != nil {
		blob.ContentType = *resp.ContentType
	}
	return blob, nil
}
