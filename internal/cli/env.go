package cli

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// overrideVars name env files that win over the -env flag when set.
var overrideVars = []string{"COLLATE_ENV_FILE", "HORSE_ENV_FILE"}

// EnvLoader loads .env files with a predictable override order: override
// variables first, then the flag value, its basename, and the default path.
type EnvLoader struct {
	value       *string
	defaultPath string
}

// AddEnvFlag registers an -env flag on fs and returns its loader.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}

	return &EnvLoader{
		value:       fs.String("env", defaultPath, description),
		defaultPath: defaultPath,
	}
}

// Load resolves and loads environment variables, returning the path that won.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	log.SetOutput(os.Stderr)

	for _, envVar := range overrideVars {
		custom := strings.TrimSpace(os.Getenv(envVar))
		if custom == "" {
			continue
		}
		if err := godotenv.Overload(custom); err != nil {
			log.Printf("Warning: failed to load %s=%s", envVar, custom)
			continue
		}
		log.Printf("Loaded environment from %s: %s", envVar, custom)
		return custom, nil
	}

	requested := l.defaultPath
	if l.value != nil && strings.TrimSpace(*l.value) != "" {
		requested = strings.TrimSpace(*l.value)
	}

	candidates := []string{requested}
	if base := filepath.Base(requested); base != "" && base != requested {
		candidates = append(candidates, base)
	}
	if requested != l.defaultPath {
		candidates = append(candidates, l.defaultPath)
	}

	for _, path := range candidates {
		if err := godotenv.Overload(path); err != nil {
			continue
		}
		log.Printf("Loaded environment from: %s", path)
		return path, nil
	}

	return "", fmt.Errorf("failed to load env file from %s", requested)
}
