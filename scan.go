package parametric

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Scan decodes the parameter set (or a nested section of it) into a struct.
// basePath selects a dotted section; empty scans the whole instance. Struct
// fields map by the "param" tag, falling back to case-insensitive field name
// matching.
func (in *Instance) Scan(basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("target of Scan must be a non-nil pointer, got %T", target)
	}

	var sectionData any = in.Dump()

	basePath = strings.TrimSuffix(basePath, ".")
	if basePath != "" {
		sectionData = navigateToPath(sectionData.(map[string]any), basePath)
		if sectionData == nil {
			sectionData = make(map[string]any)
		}
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("parameter path %q does not refer to a scannable section (map), but to type %T", basePath, sectionData)
	}

	decoderConfig := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "param",
		WeaklyTypedInput: true, // allow conversions (e.g. int64 into int)
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(sectionMap); err != nil {
		return fmt.Errorf("failed to decode parameters into target struct (path: %q): %w", basePath, err)
	}

	return nil
}
