package codegen

import (
	"io"

	"github.com/kr/pretty"
)

// ClassSummary is the printable view of one class table entry.
type ClassSummary struct {
	Tag        int
	Name       string
	Parent     string
	Size       int
	Attributes []AttributeInfo
	Methods    []MethodInfo
}

// Summaries lists every class in tag order.
func (ct *ClassTable) Summaries() []ClassSummary {
	out := make([]ClassSummary, 0, len(ct.nodes))
	for _, node := range ct.nodes {
		s := ClassSummary{
			Tag:        node.Tag,
			Name:       node.Name,
			Size:       node.ObjectSize,
			Attributes: node.Attributes,
			Methods:    node.Dispatch.Entries(),
		}
		if parent := ct.ParentNode(node); parent != nil {
			s.Parent = parent.Name
		}
		out = append(out, s)
	}
	return out
}

// Dump pretty-prints the class table: tags, layouts and dispatch tables.
func (ct *ClassTable) Dump(w io.Writer) error {
	for _, s := range ct.Summaries() {
		if _, err := pretty.Fprintf(w, "%# v\n", s); err != nil {
			return err
		}
	}
	return nil
}
