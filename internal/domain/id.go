package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID builds prefix + base36(unix millis) + 6 random characters.
// Collisions are possible in theory and accepted as negligible.
func NewID(prefix string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strconv.FormatInt(time.Now().UnixMilli(), 36) + random[:6]
}
