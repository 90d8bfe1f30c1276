package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/classroom-scheduler/internal/booking"
)

// ClassroomSeed is one catalog entry of the classrooms file.
type ClassroomSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Capacity int    `yaml:"capacity"`
}

type classroomsFile struct {
	Classrooms []ClassroomSeed `yaml:"classrooms"`
}

// LoadClassrooms reads the YAML classroom seed file at path.
func LoadClassrooms(path string) ([]booking.Classroom, error) {
	if path == "" {
		return nil, errors.New("classrooms file path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open classrooms file: %w", err)
	}
	defer f.Close()

	var doc classroomsFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode classrooms file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(doc.Classrooms))
	out := make([]booking.Classroom, 0, len(doc.Classrooms))
	for i, seed := range doc.Classrooms {
		id := strings.TrimSpace(seed.ID)
		name := strings.TrimSpace(seed.Name)
		switch {
		case id == "":
			return nil, fmt.Errorf("classrooms[%d]: id is required", i)
		case name == "":
			return nil, fmt.Errorf("classrooms[%d] %s: name is required", i, id)
		case seed.Capacity < 0:
			return nil, fmt.Errorf("classrooms[%d] %s: capacity must not be negative", i, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("classrooms[%d]: duplicate id %s", i, id)
		}
		seen[id] = struct{}{}
		out = append(out, booking.Classroom{
			ID:       id,
			Name:     name,
			Location: strings.TrimSpace(seed.Location),
			Capacity: seed.Capacity,
		})
	}
	return out, nil
}
