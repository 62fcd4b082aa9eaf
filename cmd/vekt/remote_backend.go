package main

import (
	"fmt"
	"strings"

	"github.com/Khushiyant/vekt/remote"
	"github.com/Khushiyant/vekt/repo"
)

// backendForURL resolves a remote's configured URL to a transport. An
// "s3://bucket" URL talks to Amazon S3; anything else is treated as a local
// or mounted-share path, useful for testing push/pull without a network.
func backendForURL(url string) (remote.Backend, error) {
	if strings.HasPrefix(url, "s3://") {
		bucket, err := repo.ValidateS3URL(url)
		if err != nil {
			return nil, err
		}
		backend, err := remote.NewS3Backend(bucket)
		if err != nil {
			return nil, fmt.Errorf("connecting to s3 remote: %w", err)
		}
		return backend, nil
	}
	return remote.NewFilesystemBackend(url), nil
}
