package providers

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider decodes a YAML document, or the value under one of its
// top-level keys, onto an existing value. Fields absent from the document
// keep their current value.
type YAMLProvider struct {
	filename string
	content  []byte
	key      string
}

// NewYAMLProvider reads filename when it is set, otherwise content.
func NewYAMLProvider(filename string, content []byte) *YAMLProvider {
	return &YAMLProvider{filename: filename, content: content}
}

func (p *YAMLProvider) WithKey(key string) *YAMLProvider {
	p.key = key
	return p
}

func (p *YAMLProvider) Load(cfg any) error {
	root, err := p.root()
	if err != nil || root == nil {
		return err
	}
	if p.key != "" {
		if root = lookup(root, p.key); root == nil {
			return nil
		}
	}
	return root.Decode(cfg)
}

// root returns the top-level node, or nil for a missing or empty document.
func (p *YAMLProvider) root() (*yaml.Node, error) {
	content := p.content
	if p.filename != "" {
		b, err := os.ReadFile(p.filename)
		if err != nil {
			return nil, err
		}
		content = b
	}
	if len(content) == 0 {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
