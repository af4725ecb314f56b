package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// documentRoot is the top-level structure of a rule document.
type documentRoot struct {
	Version  string           `hcl:"version"`
	Name     string           `hcl:"name"`
	Layers   []*layerBlock    `hcl:"layer,block"`
	Defaults []*defaultsBlock `hcl:"defaults,block"`
}

// layerBlock declares a layer and the field names it may carry.
type layerBlock struct {
	Name   string   `hcl:"name,label"`
	Fields []string `hcl:"fields"`
}

// defaultsBlock is one default rule: an optional selector plus per-layer
// overlay blocks. The overlay blocks are typed by layer name, so they stay
// in the remain body and are walked dynamically by the loader.
type defaultsBlock struct {
	Selector []string `hcl:"selector,optional"`
	Remain   hcl.Body `hcl:",remain"`
}
