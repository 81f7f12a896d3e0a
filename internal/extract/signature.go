package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// findFunctionDeclarator finds the function_declarator inside a definition
// or declaration node, skipping parameter lists so nested function types in
// parameters are not picked up.
func findFunctionDeclarator(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "function_declarator" {
		return node
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		t := child.Type()
		if t == "parameter_list" || t == "compound_statement" || t == "field_declaration_list" {
			continue
		}
		if found := findFunctionDeclarator(child); found != nil {
			return found
		}
	}
	return nil
}

// declaratorName extracts the declared name from a declarator subtree.
// Handles plain identifiers, qualified identifiers (Outer::method),
// destructor names (~Outer), operator names, and pointer/reference/array
// wrapping.
func (e *Extractor) declaratorName(node *sitter.Node) string {
	if node == nil {
		return ""
	}

	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		switch child.Type() {
		case "identifier", "field_identifier", "qualified_identifier",
			"destructor_name", "operator_name", "type_identifier":
			return normalizeName(e.text(child))
		case "pointer_declarator", "reference_declarator", "array_declarator",
			"function_declarator":
			if name := e.declaratorName(child); name != "" {
				return name
			}
		case "parameter_list":
			continue
		}
	}

	return ""
}

// extractParameters reads the parameter list of a function_declarator.
func (e *Extractor) extractParameters(declarator *sitter.Node) []Param {
	paramList := findChildByType(declarator, "parameter_list")
	if paramList == nil {
		return nil
	}

	var params []Param
	for i := uint32(0); i < paramList.NamedChildCount(); i++ {
		child := paramList.NamedChild(int(i))
		switch child.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			params = append(params, e.extractParameter(child))
		case "variadic_parameter_declaration":
			params = append(params, Param{Name: "...", Type: "..."})
		}
	}
	return params
}

// extractParameter reads one parameter_declaration into name and type text.
// Qualifiers and pointer/reference markers stay part of the type so that
// overloads differing only in a qualifier keep distinct signatures.
func (e *Extractor) extractParameter(node *sitter.Node) Param {
	var p Param
	var typeParts []string

	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		switch child.Type() {
		case "type_qualifier":
			typeParts = append(typeParts, e.text(child))
		case "primitive_type", "type_identifier", "sized_type_specifier",
			"qualified_identifier", "template_type", "struct_specifier",
			"enum_specifier", "class_specifier":
			typeParts = append(typeParts, e.text(child))
		case "identifier":
			p.Name = e.text(child)
		case "pointer_declarator", "abstract_pointer_declarator":
			if id := findDescendantByType(child, "identifier"); id != nil {
				p.Name = e.text(id)
			}
			typeParts = append(typeParts, "*")
		case "reference_declarator", "abstract_reference_declarator":
			if id := findDescendantByType(child, "identifier"); id != nil {
				p.Name = e.text(id)
			}
			typeParts = append(typeParts, "&")
		case "array_declarator":
			if id := findDescendantByType(child, "identifier"); id != nil {
				p.Name = e.text(id)
			}
			typeParts = append(typeParts, "[]")
		}
	}

	p.Type = joinTypeParts(typeParts)
	return p
}

// extractReturnType reads the return type of a function definition or
// declaration, stopping at the declarator. Storage classes and export
// macros are decorations, not type text.
func (e *Extractor) extractReturnType(node *sitter.Node) string {
	var typeParts []string

scan:
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		switch child.Type() {
		case "primitive_type", "sized_type_specifier",
			"qualified_identifier", "template_type":
			typeParts = append(typeParts, e.text(child))
		case "type_identifier":
			// Export macros in type position are decorations, not type text.
			if text := e.text(child); !isMacroToken(text) {
				typeParts = append(typeParts, text)
			}
		case "type_qualifier":
			typeParts = append(typeParts, e.text(child))
		case "function_declarator", "reference_declarator", "init_declarator":
			break scan
		case "pointer_declarator":
			typeParts = append(typeParts, "*")
			break scan
		}
	}

	return joinTypeParts(typeParts)
}

// joinTypeParts renders accumulated type tokens, gluing * and & and []
// directly onto the preceding token.
func joinTypeParts(parts []string) string {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 && part != "*" && part != "&" && part != "[]" {
			sb.WriteByte(' ')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

// declDecorations collects decoration tokens from a function or variable
// declaration node: virtual, override/final, storage classes, = default /
// = delete, trailing const, and macro-shaped attribute tokens. They are
// captured as opaque strings, never interpreted.
func (e *Extractor) declDecorations(node *sitter.Node) []string {
	var decorations []string
	seen := make(map[string]bool)
	add := func(d string) {
		if d != "" && !seen[d] {
			decorations = append(decorations, d)
			seen[d] = true
		}
	}

	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		switch child.Type() {
		case "virtual", "virtual_function_specifier":
			add("virtual")
		case "virtual_specifier": // override, final
			add(e.text(child))
		case "storage_class_specifier", "explicit_function_specifier":
			add(e.text(child))
		case "default_method_clause":
			add("= default")
		case "delete_method_clause":
			add("= delete")
		case "attribute_declaration", "attribute_specifier", "ms_declspec_modifier":
			add(e.text(child))
		case "function_declarator":
			// const / noexcept / override trail the parameter list.
			for j := uint32(0); j < child.ChildCount(); j++ {
				sub := child.Child(int(j))
				switch sub.Type() {
				case "type_qualifier", "noexcept", "virtual_specifier":
					add(e.text(sub))
				}
			}
		case "identifier", "type_identifier":
			// An all-caps macro-shaped token in declaration position is an
			// export/visibility macro; keep it positionally, opaquely.
			if text := e.text(child); isMacroToken(text) {
				add(text)
			}
		}
	}

	return decorations
}

// isMacroToken reports whether an identifier is macro-shaped: at least two
// characters, all caps, digits or underscores.
func isMacroToken(s string) bool {
	if len(s) < 2 {
		return false
	}
	hasAlpha := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			hasAlpha = true
		case r >= '0' && r <= '9' || r == '_':
		default:
			return false
		}
	}
	return hasAlpha
}
