package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	apperrors "go-photo-qc/internal/errors"
)

// AzureFetcher downloads images from Azure Blob Storage with a shared key
type AzureFetcher struct {
	client   *azblob.Client
	account  string
	maxBytes int64
}

func NewAzureFetcher(accountName string, accountKey string) (*AzureFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureFetcher{client: client, account: accountName, maxBytes: DefaultMaxImageBytes}, nil
}

// IsBlobLocation reports whether a location addresses Azure Blob Storage
func IsBlobLocation(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "azblob" || strings.HasSuffix(u.Hostname(), ".blob.core.windows.net")
}

// ParseBlobLocation splits azblob://container/name or
// https://account.blob.core.windows.net/container/name into its parts
func ParseBlobLocation(location string) (container, blob string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob URL", err)
	}

	var path string
	switch {
	case u.Scheme == "azblob":
		path = u.Host + u.Path
	case strings.HasSuffix(u.Hostname(), ".blob.core.windows.net"):
		path = strings.TrimPrefix(u.Path, "/")
	default:
		return "", "", apperrors.NewValidationError("not a blob location: "+location, nil)
	}

	container, blob, ok := strings.Cut(path, "/")
	if !ok || container == "" || blob == "" {
		return "", "", apperrors.NewValidationError("blob location needs a container and a blob name: "+location, nil)
	}
	return container, blob, nil
}

func (s *AzureFetcher) Fetch(ctx context.Context, location string) (*Blob, error) {
	containerName, blobName, err := ParseBlobLocation(location)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewImageNotFoundError(
				fmt.Sprintf("blob %s/%s not found in account %s", containerName, blobName, s.account), err)
		}
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, s.maxBytes)
	if err != nil {
		return nil, err
	}

	blob := &Blob{Location: location, Data: data}
	if resp.ContentType != nil {
		blob.ContentType = *resp.ContentType
	}
	return blob, nil
}
