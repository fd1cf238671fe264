package main

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/CaliLuke/go-entity/entity"
)

// readRecords reads a YAML file holding one record mapping or a list of them.
func readRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read records")
	}
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "parse records %s", path)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	switch root.Kind {
	case yaml.MappingNode:
		var rec map[string]any
		if err := root.Decode(&rec); err != nil {
			return nil, errors.Wrapf(err, "parse records %s", path)
		}
		return []map[string]any{rec}, nil
	case yaml.SequenceNode:
		var recs []map[string]any
		if err := root.Decode(&recs); err != nil {
			return nil, errors.Wrapf(err, "parse records %s", path)
		}
		return recs, nil
	}
	return nil, errors.Newf("records %s: expected a mapping or a list of mappings", path)
}

// buildInstance creates a new instance of c from a record. Values go through
// the attribute's stored form conversion, so dates may be RFC 3339 strings and
// associations may be given as IDs.
func buildInstance(c *entity.Class, rec map[string]any) (*entity.Instance, error) {
	values := make(map[string]any, len(rec))
	for name, raw := range rec {
		attr, ok := c.Attributes().Get(name)
		if !ok {
			return nil, errors.Newf("entity %q has no attribute %q", c.Name(), name)
		}
		v, err := attr.ParseDataValue(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", name)
		}
		values[name] = v
	}
	factory, err := c.New()
	if err != nil {
		return nil, err
	}
	return factory(values)
}

// instanceDoc renders an instance as a YAML-friendly mapping keyed by
// attribute name.
func instanceDoc(inst *entity.Instance) (map[string]any, error) {
	doc := map[string]any{
		"id":     inst.ID(),
		"entity": inst.Entity().Name(),
	}
	for _, attr := range inst.Entity().Attributes().All() {
		v, ok := inst.Lookup(attr.Name())
		if !ok {
			continue
		}
		dv, err := attr.GetDataValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", attr.Name())
		}
		doc[attr.Name()] = dv
	}
	return doc, nil
}

func writeDocs(w io.Writer, insts []*entity.Instance) error {
	docs := make([]map[string]any, 0, len(insts))
	for _, inst := range insts {
		d, err := instanceDoc(inst)
		if err != nil {
			return err
		}
		docs = append(docs, d)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i]["id"].(string) < docs[j]["id"].(string)
	})
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if len(docs) == 1 {
		if err := enc.Encode(docs[0]); err != nil {
			return err
		}
	} else if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}
