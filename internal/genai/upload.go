package genai

import (
	"context"
	"fmt"
)

// Uploader pushes a local asset to the collaborator and returns an opaque
// reference that later calls can use instead of re-sending the bytes.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// UploadFile uploads the file at path through the vendor's files API and
// returns its remote URI.
func (c *HTTPClient) UploadFile(ctx context.Context, path string) (string, error) {
	file, err := c.gc.Files.UploadFromPath(ctx, path, nil)
	if err != nil {
		return "", wrapSDKError(err)
	}
	ref := file.URI
	if ref == "" {
		ref = file.Name
	}
	if ref == "" {
		return "", fmt.Errorf("upload response contained no file reference")
	}
	return ref, nil
}

// Ensure HTTPClient satisfies Uploader.
var _ Uploader = (*HTTPClient)(nil)
