package lenders

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/liamcoop/loanassess/internal/logger"
	"github.com/liamcoop/loanassess/rules"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported criteria file format")

//go:embed data/lenders.yaml
var embeddedCriteria []byte

// Source supplies the lender criteria the table is built from.
type Source interface {
	Load(ctx context.Context) ([]Criteria, error)
}

// document is the on-disk shape of a criteria file.
type document struct {
	Lenders []Criteria `yaml:"lenders" json:"lenders"`
}

// jsonCriteria carries policies through JSON, where Criteria hides them.
type jsonCriteria struct {
	Criteria
	Policies []rules.Rule `json:"policies,omitempty"`
}

// ParseYAML decodes a criteria document.
func ParseYAML(data []byte) ([]Criteria, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse criteria yaml: %w", err)
	}
	return doc.Lenders, nil
}

// ParseJSON decodes a criteria document in JSON form.
func ParseJSON(data []byte) ([]Criteria, error) {
	var doc struct {
		Lenders []jsonCriteria `json:"lenders"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse criteria json: %w", err)
	}

	out := make([]Criteria, 0, len(doc.Lenders))
	for _, jc := range doc.Lenders {
		c := jc.Criteria
		c.Policies = jc.Policies
		out = append(out, c)
	}
	return out, nil
}

// FileSource reads criteria from a YAML or JSON file, chosen by extension.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]Criteria, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.Path)
	}
}

// EmbeddedSource serves the criteria compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Load(ctx context.Context) ([]Criteria, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseYAML(embeddedCriteria)
}

// Load reads src and builds the validated table and its compiled policies.
func Load(ctx context.Context, src Source) (*Table, *rules.Engine, error) {
	criteria, err := src.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load lender criteria: %w", err)
	}

	table, err := NewTable(criteria)
	if err != nil {
		return nil, nil, err
	}

	policies, err := table.PolicyEngine()
	if err != nil {
		return nil, nil, err
	}

	logger.Info("lender criteria loaded",
		"source", fmt.Sprintf("%T", src),
		"lenders", table.Len(),
		"policies", len(policies.Rules()),
	)
	return table, policies, nil
}
