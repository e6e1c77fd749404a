package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gocloud.dev/secrets"

	"github.com/allisson/writequeue/internal/writequeue/domain"

	// Register KMS keeper drivers for sealed payloads
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

const sealedPrefix = "sealed:v1:"

// PayloadCodec converts payloads to and from the text stored in the local log.
type PayloadCodec interface {
	Encode(ctx context.Context, payload domain.Payload) (string, error)
	Decode(ctx context.Context, data string) (domain.Payload, error)
}

// Keeper encrypts and decrypts payload snapshots. *secrets.Keeper implements it.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// OpenKeeper opens a keeper for the given URI.
// Supports: base64key://, hashivault://, awskms://, gcpkms://, azurekeyvault://
func OpenKeeper(ctx context.Context, keyURI string) (*secrets.Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload keeper: %w", err)
	}
	return keeper, nil
}

type jsonPayloadCodec struct{}

// NewJSONPayloadCodec stores payloads as plain JSON text.
func NewJSONPayloadCodec() PayloadCodec {
	return jsonPayloadCodec{}
}

func (jsonPayloadCodec) Encode(_ context.Context, payload domain.Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

func (jsonPayloadCodec) Decode(_ context.Context, data string) (domain.Payload, error) {
	var payload domain.Payload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return domain.Payload{}, fmt.Errorf("failed to decode payload: %w", err)
	}
	return payload, nil
}

type sealedPayloadCodec struct {
	keeper Keeper
	plain  jsonPayloadCodec
}

// NewSealedPayloadCodec encrypts the JSON snapshot with keeper before it is
// stored. Plain JSON rows written before sealing was enabled still decode.
func NewSealedPayloadCodec(keeper Keeper) PayloadCodec {
	return &sealedPayloadCodec{keeper: keeper}
}

func (c *sealedPayloadCodec) Encode(ctx context.Context, payload domain.Payload) (string, error) {
	plaintext, err := c.plain.Encode(ctx, payload)
	if err != nil {
		return "", err
	}

	ciphertext, err := c.keeper.Encrypt(ctx, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("failed to seal payload: %w", err)
	}

	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (c *sealedPayloadCodec) Decode(ctx context.Context, data string) (domain.Payload, error) {
	encoded, ok := strings.CutPrefix(data, sealedPrefix)
	if !ok {
		return c.plain.Decode(ctx, data)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to decode sealed payload: %w", err)
	}

	plaintext, err := c.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to unseal payload: %w", err)
	}

	return c.plain.Decode(ctx, string(plaintext))
}
