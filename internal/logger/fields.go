package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldDataset is the structured log field key for the dataset source path.
	FieldDataset = "dataset"
	// FieldBundleID is the structured log field key for a model bundle identifier.
	FieldBundleID = "bundle_id"
	// FieldBundlePath is the structured log field key for the persisted bundle location.
	FieldBundlePath = "bundle_path"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// DatasetFields describes the dataset source. An empty path yields no fields.
func DatasetFields(path string) []zap.Field {
	return StringFields(StringField{Key: FieldDataset, Value: path})
}

// BundleFields describes a persisted model bundle.
func BundleFields(id, path string) []zap.Field {
	return StringFields(
		StringField{Key: FieldBundleID, Value: id},
		StringField{Key: FieldBundlePath, Value: path},
	)
}
