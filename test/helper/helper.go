package helper

import (
	"bufio"
	"os"
	"regexp"

	"github.com/Toasterson/bastel-project-webhookinator/app"
	"github.com/Toasterson/bastel-project-webhookinator/config"
	"github.com/go-resty/resty/v2"
)

var defaultEnvs = map[string]string{
	"WHINATOR_LISTEN":             "127.0.0.1:0",
	"WHINATOR_STATUS_LISTEN":      "127.0.0.1:0",
	"WHINATOR_LOG_LEVEL":          "debug",
	"WHINATOR_LOG_FORMAT":         "text",
	"WHINATOR_LOG_COLORED":        "false",
	"WHINATOR_ACCESS_LOG_ENABLED": "false",
}

// Start starts the application with the given environment variables on top
// of defaults binding ephemeral local ports. The variables are unset again
// once the configuration is loaded.
func Start(envs map[string]string) (*app.Application, error) {
	cfg, err := LoadConfig(LoadConfigOptions{Envs: envs})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.Log.File); err == nil && cfg.Log.File != "/dev/stdout" {
		TruncateFile(cfg.Log.File)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := application.Start(); err != nil {
		return nil, err
	}

	return application, nil
}

// MustStart is like Start but panics on failure.
func MustStart(envs map[string]string) *app.Application {
	application, err := Start(envs)
	if err != nil {
		panic(err)
	}
	return application
}

type LoadConfigOptions struct {
	Envs       map[string]string
	File       string
	ExcludeEnv bool
}

func LoadConfig(opts LoadConfigOptions) (*config.Config, error) {
	cfg := config.New()
	loader := config.NewLoader(cfg).WithFilename(opts.File)

	if !opts.ExcludeEnv {
		restore := setEnvironments(mergeEnvs(defaultEnvs, opts.Envs))
		defer restore()
		loader = loader.WithEnvPrefix(config.EnvPrefix)
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WebhookClient returns a client for the webhook listener of application.
func WebhookClient(application *app.Application) *resty.Client {
	c := resty.New()
	c.SetBaseURL("http://" + application.Gateway().Addr().String())
	return c
}

// StatusClient returns a client for the status listener of application.
func StatusClient(application *app.Application) *resty.Client {
	c := resty.New()
	c.SetBaseURL("http://" + application.Status().Addr().String())
	return c
}

func TruncateFile(filename string) {
	err := os.Truncate(filename, 0)
	if err != nil {
		panic("failed to truncate file: " + err.Error())
	}
}

func FileHasLine(filename string, regex string) (bool, error) {
	file, err := os.Open(filename)
	if err != nil {
		return false, err
	}
	defer file.Close()

	r, err := regexp.Compile(regex)
	if err != nil {
		return false, err
	}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if r.MatchString(line) {
			return true, nil
		}
	}

	return false, nil
}
