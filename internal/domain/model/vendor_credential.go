package model

import (
	"strings"
	"time"

	"ai-assistant-backend/internal/domain"

	"github.com/oklog/ulid/v2"
)

type Vendor string

const (
	VendorDoubao          Vendor = "doubao"
	VendorGemini          Vendor = "gemini"
	VendorXunfeiPPT       Vendor = "xunfei_ppt"
	VendorBytedanceSpeech Vendor = "bytedance_speech"
)

func ParseVendor(s string) (Vendor, error) {
	switch v := Vendor(strings.ToLower(strings.TrimSpace(s))); v {
	case VendorDoubao, VendorGemini, VendorXunfeiPPT, VendorBytedanceSpeech:
		return v, nil
	}
	return "", domain.ErrInvalidArgument
}

// ChatVendors are the providers eligible for the chat proxy.
var ChatVendors = []Vendor{VendorDoubao, VendorGemini}

// VendorCredential is one row of vendor API configuration. Which fields are
// meaningful depends on the vendor:
//
//	doubao, gemini:    Secret (api key), Model
//	xunfei_ppt:        AppID, Secret (api secret)
//	bytedance_speech:  AppID, Secret (token), Cluster
type VendorCredential struct {
	ID        string
	Vendor    Vendor
	Name      string
	AppID     string
	Secret    string
	Model     string
	Cluster   string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewVendorCredential(vendor Vendor, name, appID, secret, modelName, cluster string) (*VendorCredential, error) {
	c := &VendorCredential{
		ID:      ulid.Make().String(),
		Vendor:  vendor,
		Name:    name,
		AppID:   appID,
		Secret:  secret,
		Model:   modelName,
		Cluster: cluster,
		Enabled: true,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	return c, nil
}

func (c *VendorCredential) Validate() error {
	if c.Name == "" || c.Secret == "" {
		return domain.ErrInvalidArgument
	}
	switch c.Vendor {
	case VendorDoubao, VendorGemini:
		if c.Model == "" {
			return domain.ErrInvalidArgument
		}
	case VendorXunfeiPPT:
		if c.AppID == "" {
			return domain.ErrInvalidArgument
		}
	case VendorBytedanceSpeech:
		if c.AppID == "" || c.Cluster == "" {
			return domain.ErrInvalidArgument
		}
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}

type VendorCredentialPatch struct {
	Name    *string
	AppID   *string
	Secret  *string
	Model   *string
	Cluster *string
	Enabled *bool
}

func (c *VendorCredential) Apply(p VendorCredentialPatch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.AppID != nil {
		c.AppID = *p.AppID
	}
	if p.Secret != nil {
		c.Secret = *p.Secret
	}
	if p.Model != nil {
		c.Model = *p.Model
	}
	if p.Cluster != nil {
		c.Cluster = *p.Cluster
	}
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	c.UpdatedAt = time.Now()
}
