package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Первый байт значения указывает формат
const (
	formatJSON byte = 'j'
	formatZstd byte = 'z'
)

// ErrCorruptValue возвращается для значения, которое не удалось декодировать
var ErrCorruptValue = errors.New("corrupt cached value")

// Encoder и decoder без состояния потока безопасны для параллельных
// EncodeAll/DecodeAll
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// Codec сериализует значения в JSON и при необходимости сжимает zstd
type Codec struct {
	// Compress включает zstd для значений не короче MinSize
	Compress bool
	MinSize  int
}

// Marshal кодирует v
func (c Codec) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if c.Compress && len(raw) >= c.MinSize {
		out := make([]byte, 1, 1+len(raw)/2)
		out[0] = formatZstd
		return zstdEncoder.EncodeAll(raw, out), nil
	}

	out := make([]byte, 1+len(raw))
	out[0] = formatJSON
	copy(out[1:], raw)
	return out, nil
}

// Unmarshal декодирует значение любого из форматов независимо от Compress
func (c Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrCorruptValue
	}

	raw := data[1:]
	switch data[0] {
	case formatJSON:
	case formatZstd:
		var err error
		raw, err = zstdDecoder.DecodeAll(raw, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptValue, err)
		}
	default:
		return fmt.Errorf("%w: unknown format %q", ErrCorruptValue, data[0])
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	return nil
}
