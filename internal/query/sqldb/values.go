package sqldb

import (
	"math/big"

	"github.com/google/uuid"
)

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	case [16]byte:
		return uuid.UUID(typed).String()
	case uuid.UUID:
		return typed.String()
	case *big.Int:
		if typed == nil {
			return nil
		}
		if typed.IsInt64() {
			return typed.Int64()
		}
		return typed.String()
	default:
		return typed
	}
}
