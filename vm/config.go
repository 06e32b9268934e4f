package vm

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the three build-time constants §6 names as hard
// limits: DATA_STACK_SIZE, FRAME_STACK_SIZE and ENABLE_CONCURRENCY, plus
// the global pool's fixed slot count (assigned by the compiler's symbol
// table, bounded here the same way the data/call stacks are).
type Config struct {
	DataStackSize     int  `yaml:"data_stack_size"`
	FrameStackSize    int  `yaml:"frame_stack_size"`
	GlobalPoolSize    int  `yaml:"global_pool_size"`
	EnableConcurrency bool `yaml:"enable_concurrency"`
}

// DefaultConfig mirrors the teacher's compiled-in StackSize/GlobalsSize/
// MaxFrames constants, generalized to the VM's bounded-stacks design.
func DefaultConfig() Config {
	return Config{
		DataStackSize:     2048,
		FrameStackSize:    1024,
		GlobalPoolSize:    65536,
		EnableConcurrency: true,
	}
}

// LoadConfig reads an optional YAML override of the default
// configuration, e.g. to shrink the stacks for an embedded deployment or
// to disable concurrency outright. A missing file is not an error; the
// defaults are returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
