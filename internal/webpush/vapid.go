package webpush

import (
	"encoding/json"
	"fmt"
	"os"

	webpushgo "github.com/SherClockHolmes/webpush-go"
)

// VAPIDKeys identifies this server to push services
type VAPIDKeys struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// GenerateVAPID creates a fresh key pair
func GenerateVAPID() (VAPIDKeys, error) {
	private, public, err := webpushgo.GenerateVAPIDKeys()
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("generate vapid keys: %w", err)
	}
	return VAPIDKeys{PublicKey: public, PrivateKey: private}, nil
}

// LoadVAPID reads a key pair written by SaveVAPID
func LoadVAPID(path string) (VAPIDKeys, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("read vapid keys: %w", err)
	}
	var keys VAPIDKeys
	if err := json.Unmarshal(raw, &keys); err != nil {
		return VAPIDKeys{}, fmt.Errorf("parse vapid keys: %w", err)
	}
	if keys.PublicKey == "" || keys.PrivateKey == "" {
		return VAPIDKeys{}, fmt.Errorf("vapid keys in %s are incomplete", path)
	}
	return keys, nil
}

// SaveVAPID writes keys as JSON, refusing to overwrite an existing file
func SaveVAPID(path string, keys VAPIDKeys) error {
	raw, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vapid keys: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create vapid file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("write vapid keys: %w", err)
	}
	return nil
}
