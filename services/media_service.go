package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	AvatarFolder  = "skill_bridge_profiles"
	ReceiptFolder = "skill_bridge_receipts"
)

// MediaStore uploads generated documents.
type MediaStore interface {
	UploadRaw(ctx context.Context, data []byte, publicID string) (string, error)
}

type UploadSignature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	secret string
}

func NewCloudinary(cloudinaryURL string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	parsed, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary url: %w", err)
	}
	secret, _ := parsed.User.Password()
	return &Cloudinary{cld: cld, secret: secret}, nil
}

// SignUpload returns the parameters a browser needs for a signed direct
// upload into folder.
func (c *Cloudinary) SignUpload(folder string, now time.Time) (UploadSignature, error) {
	params, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return UploadSignature{}, fmt.Errorf("prepare signature params: %w", err)
	}
	ts := now.Unix()
	params.Set("timestamp", strconv.FormatInt(ts, 10))
	signature, err := api.SignParameters(params, c.secret)
	if err != nil {
		return UploadSignature{}, fmt.Errorf("sign upload params: %w", err)
	}
	return UploadSignature{
		Signature: signature,
		Timestamp: ts,
		APIKey:    c.cld.Config.Cloud.APIKey,
		CloudName: c.cld.Config.Cloud.CloudName,
		Folder:    folder,
	}, nil
}

func (c *Cloudinary) UploadRaw(ctx context.Context, data []byte, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       ReceiptFolder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return res.SecureURL, nil
}
