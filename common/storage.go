package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// GetInt returns integer stored by the key. Missing value is treated as zero.
func GetInt(ctx storage.Context, key any) int {
	data := storage.Get(ctx, key)
	if data != nil {
		return data.(int)
	}

	return 0
}

// GetStringList returns deserialized list of strings stored by the key.
func GetStringList(ctx storage.Context, key any) []string {
	data := storage.Get(ctx, key)
	if data != nil {
		return std.Deserialize(data.([]byte)).([]string)
	}

	return []string{}
}

// SetSerialized serializes data and puts it into contract storage.
func SetSerialized(ctx storage.Context, key any, value any) {
	data := std.Serialize(value)
	storage.Put(ctx, key, data)
}

// byteStringType is a type prefix of serialized ByteString stack items.
const byteStringType = 0x28

// IsString checks whether the value is a ByteString stack item.
func IsString(value any) bool {
	return std.Serialize(value)[0] == byteStringType
}
