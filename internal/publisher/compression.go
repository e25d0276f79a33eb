package publisher

import (
	"errors"
	"fmt"
	"strings"
)

// Compression specifies the batch compression codec (Kafka only).
type Compression string

const (
	CompressionSnappy Compression = "snappy"
	CompressionGzip   Compression = "gzip"
	CompressionLz4    Compression = "lz4"
	CompressionZstd   Compression = "zstd"
	CompressionNone   Compression = "none"
)

var compressionTypes map[Compression]struct{}
var compressionList []string

func init() {
	list := []Compression{
		CompressionSnappy,
		CompressionGzip,
		CompressionLz4,
		CompressionZstd,
		CompressionNone,
	}

	compressionTypes = make(map[Compression]struct{})
	for _, c := range list {
		compressionTypes[c] = struct{}{}
		compressionList = append(compressionList, string(c))
	}
}

func validateCompression(codec Compression) error {
	if codec == "" {
		return nil
	}

	if _, ok := compressionTypes[codec]; ok {
		return nil
	}

	list := "'" + strings.Join(compressionList, "', '") + "'"
	return errors.Join(ErrValidation,
		fmt.Errorf("compression codec '%s' is invalid: must be %s or empty", codec, list))
}
