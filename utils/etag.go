package utils

import (
	"crypto/sha1"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag derives a strong ETag from a document id and its last
// modification time.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time) string {
	sum := sha1.Sum([]byte(id.Hex() + updatedAt.UTC().Format(time.RFC3339Nano)))
	return fmt.Sprintf(`"%x"`, sum)
}
