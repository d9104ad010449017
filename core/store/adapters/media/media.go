// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package media stores product images on Cloudinary.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"storefront/core/store/domain"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofrs/uuid/v5"
	"github.com/gosimple/slug"
)

type Config struct {
	// cloudinary://<api_key>:<api_secret>@<cloud_name>
	URL    string `env:"URL"`
	Folder string `env:"FOLDER" envDefault:"storefront/products"`
}

var _ domain.MediaStore = (*Cloudinary)(nil)

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cfg Config) (*Cloudinary, error) {
	if cfg.URL == "" {
		return nil, errors.New("media: cloudinary url is empty")
	}
	cld, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	return &Cloudinary{cld: cld, folder: cfg.Folder}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	overwrite := false
	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       c.folder,
		PublicID:     publicID(filename),
		ResourceType: "image",
		Overwrite:    &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("media: upload %q: %w", filename, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("media: upload %q: %s", filename, res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("media: upload %q returned no url", filename)
	}
	return res.SecureURL, nil
}

// publicID derives a readable, collision-free asset name from filename.
func publicID(filename string) string {
	stem := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	s := slug.Make(stem)
	if s == "" {
		s = "image"
	}
	return s + "-" + uuid.Must(uuid.NewV7()).String()[24:]
}
