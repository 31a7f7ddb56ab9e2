package builder

import (
	"github.com/goccy/go-yaml"

	"github.com/graphflow/engine/werrors"
)

// LoadYAML parses the accepted `{title, trigger}` workflow shape.
func LoadYAML(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, err
	}
	if wf.Trigger == nil {
		return nil, &werrors.BadStructure{Detail: "workflow yaml is missing a trigger"}
	}
	return &wf, nil
}

// DumpYAML serializes wf back to the accepted `{title, trigger}` shape.
func DumpYAML(wf *Workflow) ([]byte, error) {
	return yaml.Marshal(wf)
}
