package helper

import (
	"maps"
	"os"
)

// setEnvironments sets envs and returns a function restoring every variable
// to its previous value, or unsetting it if it had none.
func setEnvironments(envs map[string]string) (restore func()) {
	previous := make(map[string]*string, len(envs))
	for name, value := range envs {
		if old, ok := os.LookupEnv(name); ok {
			previous[name] = &old
		} else {
			previous[name] = nil
		}
		if err := os.Setenv(name, value); err != nil {
			panic(err)
		}
	}
	return func() {
		for name, old := range previous {
			if old == nil {
				_ = os.Unsetenv(name)
			} else {
				_ = os.Setenv(name, *old)
			}
		}
	}
}

// mergeEnvs returns defaults overridden by envs.
func mergeEnvs(defaults map[string]string, envs map[string]string) map[string]string {
	merged := maps.Clone(defaults)
	maps.Copy(merged, envs)
	return merged
}
