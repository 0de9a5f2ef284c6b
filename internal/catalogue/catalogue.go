// Package catalogue provides the default syllabus seeded into new profiles.
package catalogue

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/and161185/bankprep/internal/model"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

type topicDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type subjectDef struct {
	ID     string     `yaml:"id"`
	Name   string     `yaml:"name"`
	Topics []topicDef `yaml:"topics"`
}

type file struct {
	Subjects []subjectDef `yaml:"subjects"`
}

var (
	once    sync.Once
	seed    []model.Subject
	seedErr error
)

// Parse decodes a catalogue document into subjects with zeroed progress.
func Parse(raw []byte) ([]model.Subject, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}
	out := make([]model.Subject, 0, len(f.Subjects))
	for _, s := range f.Subjects {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("catalogue: subject without id/name")
		}
		subj := model.Subject{ID: s.ID, Name: s.Name, Topics: make([]model.Topic, 0, len(s.Topics))}
		for _, t := range s.Topics {
			if t.ID == "" || t.Name == "" {
				return nil, fmt.Errorf("catalogue: subject %q: topic without id/name", s.ID)
			}
			subj.Topics = append(subj.Topics, model.Topic{ID: t.ID, Name: t.Name})
		}
		out = append(out, subj)
	}
	return out, nil
}

// Default returns an independent deep copy of the embedded syllabus.
func Default() []model.Subject {
	once.Do(func() { seed, seedErr = Parse(catalogueYAML) })
	if seedErr != nil {
		// embedded file is part of the build
		panic(seedErr)
	}
	return model.CloneSyllabus(seed)
}
