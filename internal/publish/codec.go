package publish

import (
	"encoding/json"
	"fmt"
	"reflect"

	gojson "github.com/goccy/go-json"
	"github.com/ugorji/go/codec"

	"reelforge/internal/services"
)

// Metadata formats.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
	FormatMinJSON = "minjson"
)

// bookkeepingFields are store-internal resource fields never shipped to
// players.
var bookkeepingFields = []string{
	"removed",
	"removedTime",
	"importTime",
	"pluginConfigurations",
	"postProcessRecord",
	"managedBy",
}

// Extension returns the file extension for format.
func Extension(format string) (string, error) {
	switch format {
	case FormatJSON:
		return "json", nil
	case FormatMsgpack:
		return "msgpack", nil
	case FormatMinJSON:
		return "min.json", nil
	default:
		return "", unknownFormat(format)
	}
}

// Encode serializes v in format after stripping bookkeeping fields from any
// "resources" list it holds.
func Encode(format string, v any) ([]byte, error) {
	doc, err := document(v)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatMsgpack:
		var out []byte
		handle := &codec.MsgpackHandle{}
		handle.Canonical = true
		handle.WriteExt = true
		if err := codec.NewEncoderBytes(&out, handle).Encode(doc); err != nil {
			return nil, fmt.Errorf("encode msgpack: %w", err)
		}
		return out, nil
	case FormatMinJSON:
		return gojson.Marshal(doc)
	default:
		return nil, unknownFormat(format)
	}
}

// Decode reads data written by Encode into a generic document.
func Decode(format string, data []byte) (any, error) {
	var doc any
	switch format {
	case FormatJSON, FormatMinJSON:
		if err := gojson.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case FormatMsgpack:
		handle := &codec.MsgpackHandle{}
		handle.RawToString = true
		handle.MapType = reflect.TypeOf(map[string]any(nil))
		if err := codec.NewDecoderBytes(data, handle).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
	default:
		return nil, unknownFormat(format)
	}
	return doc, nil
}

// document round-trips v through JSON so custom marshalers apply, then
// strips bookkeeping fields.
func document(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	strip(doc)
	return doc, nil
}

func strip(doc any) {
	switch node := doc.(type) {
	case []any:
		for _, elem := range node {
			strip(elem)
		}
	case map[string]any:
		if resources, ok := node["resources"].([]any); ok {
			for _, entry := range resources {
				if item, ok := entry.(map[string]any); ok {
					for _, field := range bookkeepingFields {
						delete(item, field)
					}
				}
			}
		}
	}
}

func unknownFormat(format string) error {
	return services.Wrap(services.ErrInvalidConfiguration, "publish", "encode manifest",
		fmt.Sprintf("unknown metadata format %q", format), nil)
}
