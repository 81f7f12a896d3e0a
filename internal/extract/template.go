package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// TemplateParamKind distinguishes type parameters (typename T) from
// non-type parameters (int N).
type TemplateParamKind string

const (
	// TypeParam is a typename/class template parameter.
	TypeParam TemplateParamKind = "type"
	// NonTypeParam is a value template parameter.
	NonTypeParam TemplateParamKind = "non-type"
)

// TemplateParam is one template parameter, in declaration order.
type TemplateParam struct {
	Kind TemplateParamKind `json:"kind" yaml:"kind"`
	Name string            `json:"name" yaml:"name"`
	// Default is the default argument text, empty when absent.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// TemplateInfo is the metadata stripped from a template<...> wrapper. It is
// attached to exactly one following entity and consumed, never re-attached.
type TemplateInfo struct {
	Params []TemplateParam `json:"params" yaml:"params"`
	// Specialization is set for an empty parameter list (template<>).
	Specialization bool `json:"specialization,omitempty" yaml:"specialization,omitempty"`
}

// concat appends another wrapper's parameters, in order of appearance. Used
// when consecutive template<...> prefixes wrap one declaration (member
// templates of class templates).
func (t *TemplateInfo) concat(other *TemplateInfo) {
	t.Params = append(t.Params, other.Params...)
	if len(t.Params) > 0 {
		t.Specialization = false
	}
}

// templateInfoFrom reads a template_parameter_list node into a TemplateInfo.
func (e *Extractor) templateInfoFrom(list *sitter.Node) *TemplateInfo {
	info := &TemplateInfo{}
	if list == nil {
		return info
	}

	for i := uint32(0); i < list.NamedChildCount(); i++ {
		child := list.NamedChild(int(i))
		switch child.Type() {
		case "type_parameter_declaration", "variadic_type_parameter_declaration":
			info.Params = append(info.Params, TemplateParam{
				Kind: TypeParam,
				Name: e.templateParamName(child),
			})
		case "optional_type_parameter_declaration":
			p := TemplateParam{Kind: TypeParam, Name: e.templateParamName(child)}
			if def := child.ChildByFieldName("default_type"); def != nil {
				p.Default = e.text(def)
			}
			info.Params = append(info.Params, p)
		case "parameter_declaration", "variadic_parameter_declaration":
			info.Params = append(info.Params, TemplateParam{
				Kind: NonTypeParam,
				Name: e.templateParamName(child),
			})
		case "optional_parameter_declaration":
			p := TemplateParam{Kind: NonTypeParam, Name: e.templateParamName(child)}
			if def := child.ChildByFieldName("default_value"); def != nil {
				p.Default = e.text(def)
			}
			info.Params = append(info.Params, p)
		case "template_template_parameter_declaration":
			// A template template-parameter carries its own nested list;
			// its parameters are folded in in order of appearance.
			if inner := findChildByType(child, "template_parameter_list"); inner != nil {
				info.concat(e.templateInfoFrom(inner))
			}
			info.Params = append(info.Params, TemplateParam{
				Kind: TypeParam,
				Name: e.templateParamName(child),
			})
		}
	}

	info.Specialization = len(info.Params) == 0
	return info
}

// templateParamName digs the declared name out of a parameter node. Type
// parameters carry a type_identifier; non-type parameters hide an identifier
// inside their declarator.
func (e *Extractor) templateParamName(node *sitter.Node) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return e.text(n)
	}
	if n := node.ChildByFieldName("declarator"); n != nil {
		if id := findDescendantByType(n, "identifier"); id != nil {
			return e.text(id)
		}
		return e.text(n)
	}
	if id := findChildByType(node, "type_identifier"); id != nil {
		return e.text(id)
	}
	if id := findChildByType(node, "identifier"); id != nil {
		return e.text(id)
	}
	return ""
}
