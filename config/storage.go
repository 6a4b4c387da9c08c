package config

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	storageClient *minio.Client
	storageBucket string
	storageURL    string
)

// ConnectStorage initializes the object-store client that hosts issue
// photos. When the endpoint is not configured the server runs without
// image uploads.
func ConnectStorage() {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		log.Println("MINIO_ENDPOINT not set, image uploads disabled")
		return
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	c, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Printf("Failed to create storage client: %v", err)
		return
	}

	storageClient = c
	storageBucket = os.Getenv("MINIO_BUCKET")
	if storageBucket == "" {
		storageBucket = "civicengine"
	}

	storageURL = strings.TrimRight(os.Getenv("MINIO_PUBLIC_URL"), "/")
	if storageURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		storageURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, storageBucket)
	}

	log.Println("Connected to object storage")
}

// StorageEnabled reports whether the media host is configured.
func StorageEnabled() bool {
	return storageClient != nil
}

// UploadImage streams one image to the media host and returns its public
// URL. objectName doubles as the storage locator kept on the issue.
func UploadImage(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	if storageClient == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	_, err := storageClient.PutObject(ctx, storageBucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	return storageURL + "/" + objectName, nil
}

// RemoveImage deletes a stored image by its locator. Best effort.
func RemoveImage(ctx context.Context, objectName string) {
	if storageClient == nil || objectName == "" {
		return
	}
	if err := storageClient.RemoveObject(ctx, storageBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		log.Printf("Failed to remove stored image %s: %v", objectName, err)
	}
}
