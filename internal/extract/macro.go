package extract

import (
	"fmt"
	"strings"

	"github.com/doclens/doclens/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Export macros between the class keyword and the class name (RTC_EXPORT,
// API_AVAILABLE and friends) derail the grammar: the whole definition comes
// back as a function_definition whose declarator is the class name. The
// session recognizes the shape, reclassifies the record, and recovers the
// members from whatever parse the body got.

// macroBrokenClass reclassifies a function_definition that is really a
// class or struct hidden behind an unexpanded macro. Returns nil when the
// node is an ordinary function.
func (e *Extractor) macroBrokenClass(node *sitter.Node) []Entity {
	raw := strings.TrimSpace(e.text(node))

	var defaults classDefaults
	switch {
	case strings.HasPrefix(raw, "class "):
		defaults = classDefaultsFor(false)
	case strings.HasPrefix(raw, "struct "):
		defaults = classDefaultsFor(true)
	default:
		return nil
	}

	declarator := node.ChildByFieldName("declarator")
	if declarator == nil {
		return nil
	}
	name := e.declaratorName(declarator)
	if name == "" {
		// The declarator may be a bare identifier or drag the base clause
		// along with it; the name is the first token either way.
		if fields := strings.Fields(e.text(declarator)); len(fields) > 0 {
			name = fields[0]
		}
	}
	if name == "" || strings.ContainsAny(name, "(){}:") {
		return nil
	}

	start, end := getLineRange(node)
	ent := Entity{
		Kind:          defaults.kind,
		Name:          name,
		QualifiedName: e.scopes.qualify(name),
		Template:      e.takePending(),
		Doc:           e.docFor(node),
		Linkage:       e.scopes.linkage(),
		Decorations:   macroHeadTokens(raw, name),
		StartLine:     start,
		EndLine:       end,
	}

	body := findChildByType(node, "compound_statement")
	if body == nil {
		ent.ForwardDecl = true
		return []Entity{ent}
	}

	if hasMissingCloseBrace(body) {
		ent.OpenEnded = true
		e.diag(DiagUnbalanced, start, fmt.Sprintf("%s %q not closed before end of input", defaults.kind, name))
	}

	e.scopes.push(ScopeFrame{Kind: defaults.scopeKind, Name: name, OpenedAt: start})
	ent.Children = e.macroBrokenMembers(body, name, defaults.defaultVis)
	e.scopes.pop()

	return []Entity{ent}
}

// macroHeadTokens collects the macro-shaped tokens sitting between the
// class keyword and the class name. These are the decorations the broken
// parse hid.
func macroHeadTokens(raw, name string) []string {
	if i := strings.IndexByte(raw, '{'); i >= 0 {
		raw = raw[:i]
	}
	fields := strings.Fields(raw)
	var tokens []string
	for _, f := range fields[1:] {
		if f == name || strings.HasPrefix(f, name) {
			break
		}
		if isMacroToken(f) {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

type visMark struct {
	row uint32
	vis Visibility
}

// accessMarks reads the access labels out of the body text by line. Inside
// a compound_statement the labels parse as statement labels or worse, so a
// textual scan is the reliable source.
func (e *Extractor) accessMarks(body *sitter.Node, initial Visibility) []visMark {
	marks := []visMark{{row: 0, vis: initial}}
	base := body.StartPoint().Row
	for i, line := range strings.Split(e.text(body), "\n") {
		switch strings.TrimSuffix(strings.TrimSpace(line), ":") {
		case "public":
			marks = append(marks, visMark{row: base + uint32(i), vis: VisibilityPublic})
		case "protected":
			marks = append(marks, visMark{row: base + uint32(i), vis: VisibilityProtected})
		case "private":
			marks = append(marks, visMark{row: base + uint32(i), vis: VisibilityPrivate})
		}
	}
	return marks
}

func visibilityAt(marks []visMark, row uint32) Visibility {
	vis := marks[0].vis
	for _, m := range marks[1:] {
		if m.row > row {
			break
		}
		vis = m.vis
	}
	return vis
}

// macroBrokenMembers recovers member records from a class body that parsed
// as a statement block. Member prototypes come back as declarations,
// labeled statements, or error nodes depending on their specifiers, so the
// scan keys on function declarators wherever they landed.
func (e *Extractor) macroBrokenMembers(body *sitter.Node, className string, defaultVis Visibility) []Entity {
	marks := e.accessMarks(body, defaultVis)
	seen := make(map[uint32]bool)
	var members []Entity

	var scan func(n, top *sitter.Node)
	scan = func(n, top *sitter.Node) {
		if n.Type() == "function_declarator" {
			if seen[n.StartByte()] {
				return
			}
			seen[n.StartByte()] = true
			if ent := e.macroMemberFunction(n, top, className); ent != nil {
				ent.Visibility = visibilityAt(marks, n.StartPoint().Row)
				members = append(members, *ent)
			}
			return
		}
		for i := uint32(0); i < n.NamedChildCount(); i++ {
			scan(n.NamedChild(int(i)), top)
		}
	}

	for i := uint32(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(int(i))
		if child.Type() == parser.NodeDeclaration && findFunctionDeclarator(child) == nil {
			row := child.StartPoint().Row
			for _, v := range e.variableEntities(child, child, visibilityAt(marks, row)) {
				members = append(members, v)
			}
			continue
		}
		scan(child, child)
	}

	return mergeDuplicates(members)
}

// macroMemberFunction builds a member record anchored at the body-level
// statement the declarator landed in. Specifier and return type recovery
// falls back to the raw declaration text when the parse gave us nothing.
func (e *Extractor) macroMemberFunction(declarator, anchor *sitter.Node, className string) *Entity {
	name := e.declaratorName(declarator)
	if name == "" {
		return nil
	}
	simple := name
	if idx := strings.LastIndex(simple, "::"); idx >= 0 {
		simple = simple[idx+2:]
	}

	isCtor := simple == className
	isDtor := strings.HasPrefix(simple, "~")

	params := e.extractParameters(declarator)
	returnType := ""
	if !isCtor && !isDtor {
		if parent := declarator.Parent(); parent != nil {
			returnType = e.extractReturnType(parent)
		}
		if returnType == "" {
			returnType, _ = textualSignatureHead(e.text(anchor))
		}
		if returnType == "" {
			returnType = "void"
		}
	}

	qualified := e.scopes.qualify(name)
	signature := buildSignature(params, returnType)
	start, end := getLineRange(anchor)

	decorations := e.declDecorations(anchor)
	decorations = unionStrings(decorations, textualDecorations(e.text(anchor)))

	return &Entity{
		Kind:          FunctionEntity,
		Name:          simple,
		QualifiedName: qualified,
		Signature:     signature,
		SigHash:       computeSigHash(qualified, signature),
		Params:        params,
		ReturnType:    returnType,
		Doc:           e.docFor(anchor),
		Linkage:       e.scopes.linkage(),
		Decorations:   decorations,
		StartLine:     start,
		EndLine:       end,
	}
}

var specifierWords = map[string]bool{
	"virtual":   true,
	"static":    true,
	"inline":    true,
	"explicit":  true,
	"constexpr": true,
	"friend":    true,
	"extern":    true,
}

// textualSignatureHead splits the text before the parameter list into a
// return type and a name, ignoring leading specifiers.
func textualSignatureHead(decl string) (returnType, name string) {
	if i := strings.IndexByte(decl, '('); i >= 0 {
		decl = decl[:i]
	}
	fields := strings.Fields(decl)
	for len(fields) > 0 && specifierWords[fields[0]] {
		fields = fields[1:]
	}
	if len(fields) < 2 {
		return "", ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

// textualDecorations reads specifier keywords straight out of the raw
// declaration text, covering the cases where the broken parse dropped them.
func textualDecorations(decl string) []string {
	var out []string
	head := decl
	if i := strings.IndexByte(head, '('); i >= 0 {
		head = head[:i]
	}
	for _, f := range strings.Fields(head) {
		if specifierWords[f] {
			out = append(out, f)
		}
	}

	tail := decl
	if i := strings.LastIndexByte(tail, ')'); i >= 0 {
		tail = tail[i+1:]
	}
	tail = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tail), ";"))
	for _, kw := range []string{"const", "noexcept", "override", "final"} {
		if containsWord(tail, kw) {
			out = append(out, kw)
		}
	}
	switch {
	case strings.HasSuffix(tail, "= 0") || strings.HasSuffix(tail, "=0"):
		out = append(out, "pure")
	case strings.HasSuffix(tail, "= default"):
		out = append(out, "default")
	case strings.HasSuffix(tail, "= delete"):
		out = append(out, "delete")
	}
	return out
}

func containsWord(s, word string) bool {
	for _, f := range strings.Fields(s) {
		if f == word {
			return true
		}
	}
	return false
}
