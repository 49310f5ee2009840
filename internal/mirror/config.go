package mirror

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// entry is one mirror definition in the mirrors YAML file.
type entry struct {
	Type   string `yaml:"type"`
	Token  string `yaml:"token"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"`
}

type fileConfig struct {
	Mirrors []entry `yaml:"mirrors"`
}

// Load reads a mirrors YAML file and constructs the configured
// mirrors. A missing file is not an error; it means no mirrors.
func Load(path string) ([]Mirror, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading mirrors config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing mirrors config: %w", err)
	}

	mirrors := make([]Mirror, 0, len(cfg.Mirrors))

	for i, e := range cfg.Mirrors {
		switch e.Type {
		case "github":
			m, err := NewGitHub(e)
			if err != nil {
				return nil, fmt.Errorf("mirror %d: %w", i, err)
			}

			mirrors = append(mirrors, m)

		case "dropbox":
			m, err := NewDropbox(e)
			if err != nil {
				return nil, fmt.Errorf("mirror %d: %w", i, err)
			}

			mirrors = append(mirrors, m)

		default:
			return nil, fmt.Errorf("mirror %d: unknown type %q", i, e.Type)
		}
	}

	return mirrors, nil
}
