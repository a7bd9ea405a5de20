package sensor

import (
	"context"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/direction/logging"
)

// A Constructor creates a source from its attributes.
type Constructor func(ctx context.Context, attributes map[string]interface{}, logger logging.Logger) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[Model]Constructor{}
)

// Register registers a source model to a constructor. Registering the same model twice panics.
func Register(model Model, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := registry[model]; old {
		panic(errors.Errorf("trying to register two sources with same model %s", model))
	}
	registry[model] = constructor
}

// New constructs a source of a registered model.
func New(ctx context.Context, model Model, attributes map[string]interface{}, logger logging.Logger) (Source, error) {
	registryMu.RLock()
	constructor, ok := registry[model]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown source model %q (known: %v)", model, RegisteredModels())
	}
	return constructor(ctx, attributes, logger)
}

// RegisteredModels returns the sorted names of all registered models.
func RegisteredModels() []Model {
	registryMu.RLock()
	models := lo.Keys(registry)
	registryMu.RUnlock()
	sort.Slice(models, func(i, j int) bool { return models[i] < models[j] })
	return models
}

// DecodeAttributes decodes a loosely typed attribute map into a json-tagged struct.
func DecodeAttributes(attributes map[string]interface{}, to interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           to,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return errors.Wrap(decoder.Decode(attributes), "invalid source attributes")
}
