package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// PathQuery определяет ключ кэша пути
type PathQuery struct {
	GridHash  string
	Algorithm string
	Smoothing string
	StartX    int
	StartY    int
	GoalX     int
	GoalY     int
}

// Key строит ключ вида <prefix><algorithm>:<grid>:<smoothing>:<sx>,<sy>-<gx>,<gy>.
// Алгоритм и хеш сетки стоят первыми, чтобы инвалидировать по шаблону.
func (q PathQuery) Key(prefix string) string {
	return fmt.Sprintf("%s%s:%s:%s:%d,%d-%d,%d",
		prefix, q.Algorithm, q.GridHash, q.Smoothing, q.StartX, q.StartY, q.GoalX, q.GoalY)
}

// GridPattern шаблон всех ключей для сетки
func GridPattern(prefix, gridHash string) string {
	return prefix + "*:" + gridHash + ":*"
}

// QuickHash полный sha256 в hex
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
