package stream

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grafov/m3u8"

	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/types"
)

// encryption holds the resolved cipher parameters for one segment run.
// A nil *encryption means the segments are in the clear.
type encryption struct {
	keyURI string
	iv     [aes.BlockSize]byte
	hasIV  bool
}

// newEncryption validates an EXT-X-KEY tag. Only identity-keyformat
// AES-128 (whole-segment CBC) is supported; SAMPLE-AES and DRM key
// formats are rejected.
func newEncryption(key *m3u8.Key, resolveURI func(string) (string, error)) (*encryption, error) {
	if key == nil || key.Method == "" || key.Method == "NONE" {
		return nil, nil
	}
	if key.Method != "AES-128" {
		return nil, fmt.Errorf("key method %q: %w", key.Method, types.ErrSegmentDecrypt)
	}
	if key.Keyformat != "" && key.Keyformat != "identity" {
		return nil, fmt.Errorf("key format %q: %w", key.Keyformat, types.ErrSegmentDecrypt)
	}
	uri, err := resolveURI(key.URI)
	if err != nil {
		return nil, fmt.Errorf("key uri: %w: %w", types.ErrSegmentDecrypt, err)
	}
	enc := &encryption{keyURI: uri}
	if key.IV != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(key.IV, "0x"), "0X"))
		if err != nil || len(raw) != aes.BlockSize {
			return nil, fmt.Errorf("key iv %q: %w", key.IV, types.ErrSegmentDecrypt)
		}
		copy(enc.iv[:], raw)
		enc.hasIV = true
	}
	return enc, nil
}

// decrypt returns the plaintext of one segment. When the playlist carries
// no explicit IV, the media sequence number in big-endian form is used,
// per RFC 8216 section 5.2.
func (e *encryption) decrypt(ctx context.Context, client *httpx.Client, keys *keyCache, seq uint64, data []byte) ([]byte, error) {
	key, err := keys.get(ctx, client, e.keyURI)
	if err != nil {
		return nil, fmt.Errorf("fetch key: %w: %w", types.ErrSegmentDecrypt, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("key: %w: %w", types.ErrSegmentDecrypt, err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d: %w", len(data), types.ErrSegmentDecrypt)
	}
	iv := e.iv
	if !e.hasIV {
		binary.BigEndian.PutUint64(iv[8:], seq)
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(out, data)
	return stripPKCS7(out)
}

func stripPKCS7(data []byte) ([]byte, error) {
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("bad padding byte %d: %w", pad, types.ErrSegmentDecrypt)
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("inconsistent padding: %w", types.ErrSegmentDecrypt)
		}
	}
	return data[:len(data)-pad], nil
}

// keyCache fetches decryption keys at most once per URI. The owning
// stream is single-consumer, so no locking is needed.
type keyCache struct {
	keys map[string][]byte
}

func newKeyCache() *keyCache { return &keyCache{keys: make(map[string][]byte)} }

func (c *keyCache) get(ctx context.Context, client *httpx.Client, uri string) ([]byte, error) {
	if key, ok := c.keys[uri]; ok {
		return key, nil
	}
	ctx, cancel := client.WithAttemptTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, httpx.NewStatusError(resp)
	}
	key, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(key) != 16 {
		return nil, fmt.Errorf("key length %d, want 16", len(key))
	}
	c.keys[uri] = key
	return key, nil
}
