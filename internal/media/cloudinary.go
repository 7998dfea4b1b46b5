package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const cloudinaryHost = "https://res.cloudinary.com/"

// CloudinaryStore uploads images to Cloudinary. References are the secure
// delivery URLs returned by the upload API.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
	client *http.Client
}

func NewCloudinaryStore(cloudinaryURL, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	if folder == "" {
		folder = "complaints"
	}
	return &CloudinaryStore{cld: cld, folder: folder, client: http.DefaultClient}, nil
}

// WithHTTPClient replaces the client used to fetch delivered images.
func (s *CloudinaryStore) WithHTTPClient(client *http.Client) *CloudinaryStore {
	if client != nil {
		s.client = client
	}
	return s
}

func (s *CloudinaryStore) Save(ctx context.Context, prefix string, data []byte, ext string) (string, error) {
	publicID := strings.TrimSuffix(newName(prefix, ext), SanitizeExt(ext))
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !strings.HasPrefix(ref, cloudinaryHost) {
		return nil, ErrInvalidReference
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, ErrInvalidReference
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", ref, resp.StatusCode)
	}
	return resp.Body, nil
}
