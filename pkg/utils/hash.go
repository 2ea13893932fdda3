package utils

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// HashJSON produces a stable cache key for any JSON-marshalable value.
func HashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return HashString(fmt.Sprintf("%+v", v))
	}
	return HashString(string(data))
}
