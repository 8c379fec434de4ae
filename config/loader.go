package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/Toasterson/bastel-project-webhookinator/config/providers"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
)

const (
	DefaultFilename = "/etc/whinator.yaml"
	EnvPrefix       = "WHINATOR"
)

// Loader is configuration loader. Sources are applied in order: defaults,
// file, environment.
type Loader struct {
	cfg         *Config
	envPrefix   string
	filename    string
	optional    bool
	fileContent []byte
}

func NewLoader(cfg *Config) *Loader {
	return &Loader{cfg: cfg}
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

func (l *Loader) WithFilename(filename string) *Loader {
	l.filename = filename
	return l
}

// WithOptionalFilename loads filename when it exists and skips it otherwise.
func (l *Loader) WithOptionalFilename(filename string) *Loader {
	l.filename = filename
	l.optional = true
	return l
}

func (l *Loader) WithFileContent(content []byte) *Loader {
	l.fileContent = content
	return l
}

func (l *Loader) Load() error {
	filename := l.filename
	if filename != "" && l.optional {
		if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
			filename = ""
		}
	}

	err := providers.NewYAMLProvider(filename, l.fileContent).Load(l.cfg)
	if err != nil {
		return errs.New(errs.KindConfiguration, err)
	}

	if l.envPrefix != "" {
		if err := providers.NewEnvProvider(l.envPrefix).Load(l.cfg); err != nil {
			return errs.New(errs.KindConfiguration, err)
		}
	}

	return l.cfg.PostProcess()
}

// Load reads filename, or DefaultFilename if it exists when filename is
// empty, then the WHINATOR_* environment.
func Load(filename string, cfg *Config) error {
	loader := NewLoader(cfg).WithEnvPrefix(EnvPrefix)
	if filename == "" {
		loader.WithOptionalFilename(DefaultFilename)
	} else {
		loader.WithFilename(filename)
	}
	return loader.Load()
}
