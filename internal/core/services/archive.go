// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import (
	"context"
	"fmt"
	"io"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// UploadArchive keeps a copy of every upload in a bucket and hands out
// short lived signed URLs for them.
type UploadArchive struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string
	Bucket        string
}

// Store copies r to the named object.
func (s *UploadArchive) Store(ctx context.Context, name string, contentType string, r io.Reader) error {
	writer := s.StorageClient.Bucket(s.Bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to copy to gs://%s/%s: %w", s.Bucket, name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", s.Bucket, name, err)
	}
	return nil
}

// Open returns a reader for an archived object.
func (s *UploadArchive) Open(ctx context.Context, bucket string, name string) (io.ReadCloser, error) {
	reader, err := s.StorageClient.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS reader for gs://%s/%s: %w", bucket, name, err)
	}
	return reader, nil
}

// SignedURL signs a V4 GET URL through the IAM credentials API, so the
// server needs no private key of its own.
func (s *UploadArchive) SignedURL(ctx context.Context, name string, expires time.Duration) (string, error) {
	if s.IAMClient == nil || s.SignerEmail == "" {
		return "", fmt.Errorf("url signing is not configured")
	}
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(payload []byte) ([]byte, error) {
			resp, err := s.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: payload,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}
	u, err := s.StorageClient.Bucket(s.Bucket).SignedURL(name, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.Bucket, name, err)
	}
	return u, nil
}
