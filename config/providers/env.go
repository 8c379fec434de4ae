package providers

import (
	"reflect"

	"github.com/creasty/defaults"
	"github.com/kelseyhightower/envconfig"
)

// EnvProvider overlays environment variables onto an existing value.
//
// envconfig assigns the `default` tag to every variable that is not set,
// which would undo whatever an earlier provider loaded. The environment is
// therefore processed into a scratch copy and only fields that differ from
// their defaults are copied over. A variable explicitly set to its default
// value does not override the file.
type EnvProvider struct {
	prefix string
}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) Load(cfg any) error {
	target := reflect.ValueOf(cfg)
	if target.Kind() != reflect.Pointer || target.Elem().Kind() != reflect.Struct {
		return envconfig.ErrInvalidSpecification
	}
	t := target.Elem().Type()

	base := reflect.New(t)
	if err := defaults.Set(base.Interface()); err != nil {
		return err
	}
	scratch := reflect.New(t)
	if err := defaults.Set(scratch.Interface()); err != nil {
		return err
	}
	if err := envconfig.Process(p.prefix, scratch.Interface()); err != nil {
		return err
	}

	overlay(target.Elem(), base.Elem(), scratch.Elem())
	return nil
}

func overlay(dst, base, src reflect.Value) {
	if dst.Kind() == reflect.Struct {
		for i := 0; i < dst.NumField(); i++ {
			if !dst.Type().Field(i).IsExported() {
				continue
			}
			overlay(dst.Field(i), base.Field(i), src.Field(i))
		}
		return
	}
	if !reflect.DeepEqual(base.Interface(), src.Interface()) {
		dst.Set(src)
	}
}
