package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// fileModel mirrors the YAML model document.
type fileModel struct {
	Name    string       `yaml:"name"`
	Table   string       `yaml:"tableName,omitempty"`
	Columns []fileColumn `yaml:"columns"`
}

type fileColumn struct {
	Property   string `yaml:"property"`
	Column     string `yaml:"columnName,omitempty"`
	Type       string `yaml:"type,omitempty"`
	PrimaryKey bool   `yaml:"primaryKey,omitempty"`
	Target     string `yaml:"target,omitempty"`
	Via        string `yaml:"via,omitempty"`
	Through    string `yaml:"through,omitempty"`
}

// LoadYAML parses declarative model definitions from a YAML document holding
// a list of models. Instance methods and lifecycle hooks cannot be expressed
// in YAML; attach them to the returned models before registration.
//
//	- name: product
//	  tableName: products
//	  columns:
//	    - {property: id, type: integer, primaryKey: true}
//	    - {property: name, type: string}
//	    - {property: owner, target: user, columnName: owner_id}
//	    - {property: categories, target: category, via: product, through: productCategory}
func LoadYAML(data []byte) ([]*Model, error) {
	var docs []fileModel
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("schema: parse yaml: %w", err)
	}
	models := make([]*Model, 0, len(docs))
	for _, doc := range docs {
		if doc.Name == "" {
			return nil, fmt.Errorf("schema: yaml model missing name")
		}
		m := &Model{Name: doc.Name, Table: doc.Table}
		for _, fc := range doc.Columns {
			col, err := fc.column(doc.Name)
			if err != nil {
				return nil, err
			}
			m.Columns = append(m.Columns, col)
		}
		models = append(models, m)
	}
	return models, nil
}

func (fc fileColumn) column(model string) (*Column, error) {
	if fc.Property == "" {
		return nil, fmt.Errorf("schema: model %q: column missing property", model)
	}
	c := &Column{
		Property:  fc.Property,
		Storage:   fc.Column,
		IsPrimary: fc.PrimaryKey,
	}
	switch {
	case fc.Target != "" && fc.Via != "":
		c.Kind = KindCollection
		c.TargetModel = fc.Target
		c.ViaProperty = fc.Via
		c.ThroughModel = fc.Through
	case fc.Target != "":
		c.Kind = KindBelongsTo
		c.TargetModel = fc.Target
	}
	switch fc.Type {
	case "", "other", "json", "ref":
		c.Type = TypeOther
	case "string", "text":
		c.Type = TypeString
	case "integer", "int", "number":
		c.Type = TypeInteger
	case "float", "double":
		c.Type = TypeFloat
	case "bool", "boolean":
		c.Type = TypeBool
	case "time", "datetime", "timestamp":
		c.Type = TypeTime
	default:
		return nil, fmt.Errorf("schema: model %q: column %q: unknown type %q", model, fc.Property, fc.Type)
	}
	return c, nil
}
