package orders

import (
	"strings"

	"github.com/google/uuid"
)

const orderNumberPrefix = "WO-"

// NewOrderNumber returns WO- followed by eight upper-case hex characters.
func NewOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return orderNumberPrefix + strings.ToUpper(id[:8])
}
