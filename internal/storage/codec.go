package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// snapshotCodec сериализует снимки в JSON и сжимает их zstd.
// Encoder и Decoder безопасны для параллельных EncodeAll/DecodeAll.
type snapshotCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newSnapshotCodec() (*snapshotCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("ошибка создания zstd decoder: %w", err)
	}

	return &snapshotCodec{encoder: encoder, decoder: decoder}, nil
}

func (c *snapshotCodec) encode(snap *MapSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	return c.encoder.EncodeAll(data, nil), nil
}

func (c *snapshotCodec) decode(payload []byte) (*MapSnapshot, error) {
	data, err := c.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}

	var snap MapSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}
	return &snap, nil
}

func (c *snapshotCodec) close() {
	c.encoder.Close()
	c.decoder.Close()
}
