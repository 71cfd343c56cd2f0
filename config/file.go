package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File describes an experiment comparison
//
//	episodes: 5000
//	horizon: 100
//	environment:
//	  kind: grid
//	  params: {height: "5", width: "5"}
//	agents:
//	  - name: qlearning
//	    params: {algorithm: qlearning, alpha: "0.1", gamma: "0.95"}
type File struct {
	Episodes    int           `yaml:"episodes"`
	Horizon     int           `yaml:"horizon"`
	Runs        int           `yaml:"runs"`
	EvalEvery   int           `yaml:"eval_every"`
	Timeout     string        `yaml:"timeout"`
	Seed        int64         `yaml:"seed"`
	SavePath    string        `yaml:"save"`
	Environment Section       `yaml:"environment"`
	Store       Section       `yaml:"store"`
	Agents      []AgentConfig `yaml:"agents"`
}

// Section is a kind together with its parameters
type Section struct {
	Kind   string `yaml:"kind"`
	Params Params `yaml:"params"`
}

// AgentConfig is the learner configuration of one experiment
type AgentConfig struct {
	Name   string `yaml:"name"`
	Params Params `yaml:"params"`
}

func defaultFile() *File {
	return &File{
		Episodes: 1000,
		Horizon:  100,
		Runs:     1,
		SavePath: "results",
	}
}

// Parse decodes the yaml content, keys that are not set keep their defaults
func Parse(data []byte) (*File, error) {
	f := defaultFile()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load reads and parses the config file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return Parse(data)
}

func (f *File) validate() error {
	if f.Episodes <= 0 {
		return errors.Errorf("invalid number of episodes %d", f.Episodes)
	}
	if f.Horizon <= 0 {
		return errors.Errorf("invalid horizon %d", f.Horizon)
	}
	if f.Runs <= 0 {
		f.Runs = 1
	}
	if len(f.Agents) == 0 {
		return errors.New("no agents configured")
	}
	names := make(map[string]bool)
	for i, a := range f.Agents {
		if a.Name == "" {
			return errors.Errorf("agent %d has no name", i)
		}
		if names[a.Name] {
			return errors.Errorf("duplicate agent name %s", a.Name)
		}
		names[a.Name] = true
		if a.Params == nil {
			f.Agents[i].Params = make(Params)
		}
	}
	if f.Environment.Params == nil {
		f.Environment.Params = make(Params)
	}
	if f.Store.Params == nil {
		f.Store.Params = make(Params)
	}
	return nil
}
