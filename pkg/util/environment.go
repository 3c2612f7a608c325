package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// EnvInt returns the integer value of key in env, or fallback when unset or malformed
func EnvInt(env map[string]string, key string, fallback int) int {
	if env[key] == "" {
		return fallback
	}

	n, err := strconv.Atoi(env[key])
	if err != nil {
		return fallback
	}

	return n
}

func EnvDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	if env[key] == "" {
		return fallback
	}

	d, err := time.ParseDuration(env[key])
	if err != nil {
		return fallback
	}

	return d
}
