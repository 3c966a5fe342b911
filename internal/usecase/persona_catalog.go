package usecase

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

// PersonaCatalog serves personas by class level. The base catalog is frozen at construction;
// updates and deletions live in an override layer that Reload discards.
type PersonaCatalog interface {
	Get(classLevel int) (entity.Persona, error)
	List() []entity.Persona
	Update(persona entity.Persona) error
	Delete(classLevel int) error
	Reload()
}

// NewPersonaCatalog freezes base as the catalog; DefaultPersonas is used when base is empty.
func NewPersonaCatalog(base []entity.Persona, log logrus.FieldLogger) (PersonaCatalog, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if len(base) == 0 {
		base = DefaultPersonas()
	}
	frozen := make(map[int]entity.Persona, len(base))
	for _, p := range base {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := frozen[p.ClassLevel]; dup {
			return nil, &entity.ValidationError{Field: "persona", Problems: []string{fmt.Sprintf("duplicate class_level %d", p.ClassLevel)}}
		}
		frozen[p.ClassLevel] = p.Clone()
	}
	return &personaCatalog{
		base:      frozen,
		overrides: make(map[int]*entity.Persona),
		log:       log.WithField("component", "persona_catalog"),
	}, nil
}

type personaCatalog struct {
	base map[int]entity.Persona

	mu sync.RWMutex
	// a nil entry marks a deleted level
	overrides map[int]*entity.Persona
	log       logrus.FieldLogger
}

func checkPersonaLevel(classLevel int) error {
	if classLevel < entity.MinPersonaLevel || classLevel > entity.MaxPersonaLevel {
		return &entity.ValidationError{
			Field: "class_level",
			Problems: []string{fmt.Sprintf("invalid class level: %d. Must be between %d and %d (%d for exam preparation)",
				classLevel, entity.MinPersonaLevel, entity.MaxPersonaLevel, entity.ExamPrepLevel)},
		}
	}
	return nil
}

func (c *personaCatalog) Get(classLevel int) (entity.Persona, error) {
	if err := checkPersonaLevel(classLevel); err != nil {
		return entity.Persona{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.lookup(classLevel)
	if !ok {
		return entity.Persona{}, fmt.Errorf("class level %d: %w", classLevel, entity.ErrPersonaNotFound)
	}
	return p.Clone(), nil
}

// lookup must be called with mu held.
func (c *personaCatalog) lookup(classLevel int) (entity.Persona, bool) {
	if override, ok := c.overrides[classLevel]; ok {
		if override == nil {
			return entity.Persona{}, false
		}
		return *override, true
	}
	p, ok := c.base[classLevel]
	return p, ok
}

func (c *personaCatalog) List() []entity.Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.Persona, 0, len(c.base)+len(c.overrides))
	for level := entity.MinPersonaLevel; level <= entity.MaxPersonaLevel; level++ {
		if p, ok := c.lookup(level); ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (c *personaCatalog) Update(persona entity.Persona) error {
	if err := persona.Validate(); err != nil {
		return err
	}
	clone := persona.Clone()
	c.mu.Lock()
	c.overrides[persona.ClassLevel] = &clone
	c.mu.Unlock()
	c.log.WithField("class_level", persona.ClassLevel).Info("persona updated")
	return nil
}

func (c *personaCatalog) Delete(classLevel int) error {
	if err := checkPersonaLevel(classLevel); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lookup(classLevel); !ok {
		return fmt.Errorf("class level %d: %w", classLevel, entity.ErrPersonaNotFound)
	}
	c.overrides[classLevel] = nil
	c.log.WithField("class_level", classLevel).Info("persona deleted")
	return nil
}

func (c *personaCatalog) Reload() {
	c.mu.Lock()
	c.overrides = make(map[int]*entity.Persona)
	c.mu.Unlock()
	c.log.Info("persona overrides discarded")
}

type personaFile struct {
	Personas []entity.Persona `yaml:"personas"`
}

// LoadPersonaFile reads a YAML catalog of the form `personas: [...]`.
func LoadPersonaFile(path string) ([]entity.Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	var doc personaFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse persona file %s: %w", path, err)
	}
	if len(doc.Personas) == 0 {
		return nil, &entity.ValidationError{Field: "persona file", Problems: []string{"no personas defined in " + path}}
	}
	return doc.Personas, nil
}
