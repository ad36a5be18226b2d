package process

import (
	"slices"
	"strings"
)

// buildEnv returns nil (inherit) when there is nothing to change. Otherwise it
// returns a copy of ambient with additions applied, then PATH set to path if
// one is given. Existing keys are replaced in place; new keys are appended in
// sorted order.
func buildEnv(ambient func() []string, additions map[string]string, path string) []string {
	if len(additions) == 0 && path == "" {
		return nil
	}
	env := slices.Clone(ambient())

	keys := make([]string, 0, len(additions))
	for k := range additions {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		env = setEnv(env, k, additions[k])
	}
	if path != "" {
		env = setEnv(env, "PATH", path)
	}
	return env
}

func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
