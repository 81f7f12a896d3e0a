package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/doclens/doclens/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Options controls extraction policy for a scanning session.
type Options struct {
	// IncludeDeclarations emits `;`-terminated function prototypes at
	// namespace and file scope. Member prototypes inside class bodies are
	// always emitted. Default true.
	IncludeDeclarations bool
}

// DefaultOptions returns the default extraction policy.
func DefaultOptions() Options {
	return Options{IncludeDeclarations: true}
}

// Extractor is one file's scanning session. All state (scope stack, pending
// template info, diagnostics) is owned by the session and discarded with it,
// so independent files may be extracted in parallel with no shared state.
type Extractor struct {
	result      *parser.ParseResult
	file        string
	opts        Options
	scopes      scopeStack
	pending     *TemplateInfo
	pendingLine uint32
	diags       []Diagnostic
}

// NewExtractor creates a session over a parsed file. The file identifier is
// taken from the parse result and used only for provenance.
func NewExtractor(result *parser.ParseResult, opts Options) *Extractor {
	return &Extractor{
		result: result,
		file:   result.FilePath,
		opts:   opts,
	}
}

// Source parses and extracts an in-memory buffer in one step. fileID is
// recorded on the result for provenance only. The returned error is non-nil
// only for the fatal per-file conditions (invalid encoding).
func Source(ctx context.Context, fileID string, source []byte, opts Options) (*FileResult, error) {
	p := parser.New()
	defer p.Close()

	parsed, err := p.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	defer parsed.Close()

	parsed.FilePath = fileID
	return NewExtractor(parsed, opts).Extract(), nil
}

// Extract runs the session and returns the emitted entities in strict
// source order, along with all collected diagnostics. Running twice over
// identical input yields identical results.
func (e *Extractor) Extract() *FileResult {
	entities := e.walkContainer(e.result.Root)
	if e.pending != nil {
		e.orphanPending()
	}
	return &FileResult{
		File:        e.file,
		Entities:    entities,
		Diagnostics: e.diags,
	}
}

// walkContainer scans the ordered children of a container node (translation
// unit, namespace body, extern "C" body, preprocessor conditional) and
// emits entities in source order.
func (e *Extractor) walkContainer(container *sitter.Node) []Entity {
	var entities []Entity

	for i := uint32(0); i < container.NamedChildCount(); i++ {
		child := container.NamedChild(int(i))
		entities = append(entities, e.dispatch(child, child)...)
	}

	return mergeDuplicates(entities)
}

// dispatch classifies one node. anchor is the outermost wrapper the node's
// documentation comment lexically precedes (differs from node for template
// wrappers and for declarations handed down from a linkage spec).
func (e *Extractor) dispatch(node, anchor *sitter.Node) []Entity {
	switch node.Type() {
	case parser.NodeComment:
		return nil
	case parser.NodeNamespace:
		return e.extractNamespace(node)
	case parser.NodeLinkageSpec:
		return e.extractLinkageSpec(node)
	case parser.NodeTemplate:
		return e.extractTemplate(node, anchor)
	case parser.NodeClass:
		return e.classEntity(node, anchor, classDefaultsFor(false))
	case parser.NodeStruct:
		return e.classEntity(node, anchor, classDefaultsFor(true))
	case parser.NodeFunctionDef:
		if broken := e.macroBrokenClass(node); broken != nil {
			return broken
		}
		if ent := e.functionEntity(node, anchor, ""); ent != nil {
			return []Entity{*ent}
		}
		return nil
	case parser.NodeDeclaration:
		return e.extractDeclaration(node, anchor)
	case "ERROR":
		line, _ := getLineRange(node)
		e.diag(DiagUnparseable, line, "unrecognized fragment skipped")
		// Recovery resumes at the next recognizable declaration, which the
		// grammar may have buried inside the error node.
		return e.walkContainer(node)
	default:
		if parser.PreprocContainers[node.Type()] {
			return e.walkContainer(node)
		}
		return nil
	}
}

// classDefaults carries the per-kind differences between class and struct.
type classDefaults struct {
	kind       EntityKind
	scopeKind  ScopeKind
	defaultVis Visibility
}

// classDefaultsFor returns the classification defaults for struct
// (public members) or class (private members).
func classDefaultsFor(isStruct bool) classDefaults {
	if isStruct {
		return classDefaults{kind: StructEntity, scopeKind: ScopeStruct, defaultVis: VisibilityPublic}
	}
	return classDefaults{kind: ClassEntity, scopeKind: ScopeClass, defaultVis: VisibilityPrivate}
}

// extractNamespace emits the namespace record followed by its contents.
// Members of a namespace are qualified, not nested as children.
func (e *Extractor) extractNamespace(node *sitter.Node) []Entity {
	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = e.text(n)
	}

	start, end := getLineRange(node)
	ent := Entity{
		Kind:          NamespaceEntity,
		Name:          name,
		QualifiedName: e.scopes.qualify(name),
		Doc:           e.docFor(node),
		Linkage:       e.scopes.linkage(),
		StartLine:     start,
		EndLine:       end,
	}

	body := node.ChildByFieldName("body")
	if hasMissingCloseBrace(body) {
		ent.OpenEnded = true
		e.diag(DiagUnbalanced, start, fmt.Sprintf("namespace %q not closed before end of input", name))
	}

	entities := []Entity{ent}
	if body != nil {
		e.scopes.push(ScopeFrame{Kind: ScopeNamespace, Name: name, OpenedAt: start})
		entities = append(entities, e.walkContainer(body)...)
		e.scopes.pop()
	}

	return entities
}

// extractLinkageSpec emits the extern "C" block record and its contents.
// Everything inside inherits linkage C until the block closes.
func (e *Extractor) extractLinkageSpec(node *sitter.Node) []Entity {
	start, end := getLineRange(node)
	ent := Entity{
		Kind:      ExternCEntity,
		Linkage:   LinkageC,
		Doc:       e.docFor(node),
		StartLine: start,
		EndLine:   end,
	}

	body := node.ChildByFieldName("body")
	entities := []Entity{ent}

	e.scopes.push(ScopeFrame{Kind: ScopeExternC, OpenedAt: start})
	if body != nil && body.Type() == parser.NodeDeclarationList {
		if hasMissingCloseBrace(body) {
			entities[0].OpenEnded = true
			e.diag(DiagUnbalanced, start, `extern "C" block not closed before end of input`)
		}
		entities = append(entities, e.walkContainer(body)...)
	} else if body != nil {
		// extern "C" over a single declaration, no braces.
		entities = append(entities, e.dispatch(body, node)...)
	}
	e.scopes.pop()

	return entities
}

// extractTemplate reads a template<...> prefix into the pending slot and
// descends to the wrapped declaration, which consumes it. Consecutive
// prefixes concatenate their parameter lists in order of appearance.
func (e *Extractor) extractTemplate(node, anchor *sitter.Node) []Entity {
	line, _ := getLineRange(node)
	info := e.templateInfoFrom(node.ChildByFieldName("parameters"))
	if e.pending == nil {
		e.pending = info
		e.pendingLine = line
	} else {
		e.pending.concat(info)
	}

	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(int(i))
		switch child.Type() {
		case "template_parameter_list", parser.NodeComment:
			continue
		case parser.NodeTemplate:
			return e.extractTemplate(child, anchor)
		case parser.NodeClass:
			return e.classEntity(child, anchor, classDefaultsFor(false))
		case parser.NodeStruct:
			return e.classEntity(child, anchor, classDefaultsFor(true))
		case parser.NodeFunctionDef:
			if ent := e.functionEntity(child, anchor, ""); ent != nil {
				return []Entity{*ent}
			}
		case parser.NodeDeclaration:
			if ents := e.extractDeclaration(child, anchor); len(ents) > 0 {
				return ents
			}
		}
	}

	if e.pending != nil {
		e.orphanPending()
	}
	return nil
}

// extractDeclaration classifies a plain declaration node: a class/struct
// wrapped in a declaration, a function prototype, or variables.
func (e *Extractor) extractDeclaration(node, anchor *sitter.Node) []Entity {
	typeNode := node.ChildByFieldName("type")
	hasDeclarator := node.ChildByFieldName("declarator") != nil

	if typeNode != nil && (typeNode.Type() == parser.NodeClass || typeNode.Type() == parser.NodeStruct) {
		defaults := classDefaultsFor(typeNode.Type() == parser.NodeStruct)
		if !hasDeclarator {
			return e.classEntity(typeNode, anchor, defaults)
		}
		// `class Registry { ... } instance;` both defines the class and
		// declares a variable. A bare use like `struct Point p;` carries no
		// body and yields only the variable.
		if findChildByType(typeNode, parser.NodeFieldList) != nil {
			entities := e.classEntity(typeNode, anchor, defaults)
			return append(entities, e.variableEntities(node, anchor, "")...)
		}
	}

	if declarator := findFunctionDeclarator(node); declarator != nil {
		if !e.opts.IncludeDeclarations {
			e.consumePendingSilently()
			return nil
		}
		if ent := e.functionEntity(node, anchor, ""); ent != nil {
			return []Entity{*ent}
		}
		return nil
	}

	return e.variableEntities(node, anchor, "")
}

// functionEntity builds a function record from a definition or declaration
// node. enclosingClass enables constructor/destructor recognition for
// members; it is empty at namespace scope, where qualified declarator names
// (Outer::method) carry the scope instead.
func (e *Extractor) functionEntity(node, anchor *sitter.Node, enclosingClass string) *Entity {
	declarator := findFunctionDeclarator(node)
	if declarator == nil {
		return nil
	}

	name := e.declaratorName(declarator)
	if name == "" {
		return nil
	}

	simple := name
	if idx := strings.LastIndex(simple, "::"); idx >= 0 {
		simple = simple[idx+2:]
	}

	isCtor := enclosingClass != "" && simple == enclosingClass
	isDtor := strings.HasPrefix(simple, "~")

	params := e.extractParameters(declarator)
	returnType := ""
	if !isCtor && !isDtor {
		returnType = e.extractReturnType(node)
		if returnType == "" {
			returnType = "void"
		}
	}

	qualified := e.scopes.qualify(name)
	signature := buildSignature(params, returnType)
	start, end := getLineRange(anchor)

	return &Entity{
		Kind:          FunctionEntity,
		Name:          simple,
		QualifiedName: qualified,
		Signature:     signature,
		SigHash:       computeSigHash(qualified, signature),
		Params:        params,
		ReturnType:    returnType,
		Template:      e.takePending(),
		Doc:           e.docFor(anchor),
		Linkage:       e.scopes.linkage(),
		Decorations:   e.declDecorations(node),
		StartLine:     start,
		EndLine:       end,
	}
}

// classEntity builds a class or struct record, including its member
// children. Forward declarations (no body) are recorded with no children.
func (e *Extractor) classEntity(node, anchor *sitter.Node, defaults classDefaults) []Entity {
	nameNode := node.ChildByFieldName("name")
	name := ""
	switch {
	case nameNode == nil:
		// Anonymous class/struct: contributes nothing addressable.
		e.consumePendingSilently()
		return nil
	case nameNode.Type() == "template_type":
		// Specialization: Container<bool> names the entity Container; the
		// argument list stays out of the identity.
		if inner := nameNode.ChildByFieldName("name"); inner != nil {
			name = e.text(inner)
		} else {
			name = e.text(nameNode)
		}
	default:
		name = e.text(nameNode)
	}

	start, end := getLineRange(anchor)
	ent := Entity{
		Kind:          defaults.kind,
		Name:          name,
		QualifiedName: e.scopes.qualify(name),
		Template:      e.takePending(),
		Doc:           e.docFor(anchor),
		Linkage:       e.scopes.linkage(),
		StartLine:     start,
		EndLine:       end,
	}

	body := findChildByType(node, parser.NodeFieldList)
	if body == nil {
		ent.ForwardDecl = true
		return []Entity{ent}
	}

	if hasMissingCloseBrace(body) {
		ent.OpenEnded = true
		e.diag(DiagUnbalanced, start, fmt.Sprintf("%s %q not closed before end of input", defaults.kind, name))
	}

	e.scopes.push(ScopeFrame{Kind: defaults.scopeKind, Name: name, OpenedAt: start})
	ent.Children = e.classBody(body, name, defaults.defaultVis)
	e.scopes.pop()

	return []Entity{ent}
}

// classBody walks a field_declaration_list, tracking the access specifier
// runs that set member visibility.
func (e *Extractor) classBody(body *sitter.Node, className string, vis Visibility) []Entity {
	var members []Entity

	emit := func(ent *Entity) {
		if ent != nil {
			ent.Visibility = vis
			members = append(members, *ent)
		}
	}

	for i := uint32(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(int(i))
		switch child.Type() {
		case "access_specifier":
			vis = accessVisibility(e.text(child), vis)
		case parser.NodeComment:
			continue
		case parser.NodeFunctionDef:
			emit(e.functionEntity(child, child, className))
		case parser.NodeDeclaration:
			// Constructor/destructor prototypes surface as bare
			// declarations inside a class body.
			emit(e.functionEntity(child, child, className))
		case "field_declaration":
			if findFunctionDeclarator(child) != nil {
				emit(e.functionEntity(child, child, className))
				continue
			}
			for _, v := range e.variableEntities(child, child, vis) {
				members = append(members, v)
			}
		case parser.NodeTemplate:
			for _, m := range e.extractTemplate(child, child) {
				m.Visibility = vis
				members = append(members, m)
			}
		case parser.NodeClass:
			for _, m := range e.classEntity(child, child, classDefaultsFor(false)) {
				m.Visibility = vis
				members = append(members, m)
			}
		case parser.NodeStruct:
			for _, m := range e.classEntity(child, child, classDefaultsFor(true)) {
				m.Visibility = vis
				members = append(members, m)
			}
		case "ERROR":
			line, _ := getLineRange(child)
			e.diag(DiagUnparseable, line, "unrecognized member fragment skipped")
		}
	}

	return mergeDuplicates(members)
}

// accessVisibility maps an access_specifier's text to a visibility,
// keeping the current one for anything unrecognized.
func accessVisibility(text string, current Visibility) Visibility {
	switch {
	case strings.Contains(text, "public"):
		return VisibilityPublic
	case strings.Contains(text, "protected"):
		return VisibilityProtected
	case strings.Contains(text, "private"):
		return VisibilityPrivate
	}
	return current
}

// variableEntities reads the declarators of a variable or field declaration
// into one record each. const-qualified declarations are constants.
func (e *Extractor) variableEntities(node, anchor *sitter.Node, vis Visibility) []Entity {
	kind := VariableEntity
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child.Type() == "type_qualifier" {
			t := e.text(child)
			if t == "const" || t == "constexpr" {
				kind = ConstantEntity
				break
			}
		}
	}

	var entities []Entity
	start, end := getLineRange(anchor)
	doc := e.docFor(anchor)
	decorations := e.declDecorations(node)

	appendVar := func(name string) {
		if name == "" {
			return
		}
		entities = append(entities, Entity{
			Kind:          kind,
			Name:          name,
			QualifiedName: e.scopes.qualify(name),
			Doc:           doc,
			Linkage:       e.scopes.linkage(),
			Decorations:   decorations,
			Visibility:    vis,
			StartLine:     start,
			EndLine:       end,
		})
	}

	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		switch child.Type() {
		case "init_declarator":
			appendVar(e.declaratorName(child))
		case "identifier", "field_identifier":
			appendVar(e.text(child))
		case "pointer_declarator", "reference_declarator", "array_declarator":
			appendVar(e.declaratorName(child))
		}
	}

	// Variables never consume a template prefix; a stray one is orphaned.
	if len(entities) > 0 && e.pending != nil {
		e.orphanPending()
	}

	return entities
}

// takePending consumes the pending template wrapper, if any. Consumed
// exactly once: the first entity after the prefix claims it.
func (e *Extractor) takePending() *TemplateInfo {
	t := e.pending
	e.pending = nil
	return t
}

// consumePendingSilently discards a pending template wrapper attached to a
// construct that is deliberately skipped (policy, anonymity). Not a
// diagnostic: the wrapper did reach a valid entity opener.
func (e *Extractor) consumePendingSilently() {
	e.pending = nil
}

// orphanPending reports a template prefix that never reached an entity.
func (e *Extractor) orphanPending() {
	e.diag(DiagOrphanedTemplate, e.pendingLine, "template prefix not attached to any declaration")
	e.pending = nil
}

// mergeDuplicates collapses records with identical qualified name and
// parameter-type sequence: decorations are unioned, the first doc comment
// wins, and a single record survives. Distinct overloads are untouched.
func mergeDuplicates(entities []Entity) []Entity {
	if len(entities) < 2 {
		return entities
	}

	index := make(map[string]int)
	out := entities[:0]
	for _, ent := range entities {
		if ent.Kind != FunctionEntity {
			out = append(out, ent)
			continue
		}
		key := ent.QualifiedName + "|" + paramTypes(ent.Params)
		if at, ok := index[key]; ok {
			out[at].Decorations = unionStrings(out[at].Decorations, ent.Decorations)
			if out[at].Doc == nil {
				out[at].Doc = ent.Doc
			}
			continue
		}
		index[key] = len(out)
		out = append(out, ent)
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			a = append(a, s)
			seen[s] = true
		}
	}
	return a
}

// diag records a non-fatal diagnostic.
func (e *Extractor) diag(kind DiagnosticKind, line uint32, message string) {
	e.diags = append(e.diags, Diagnostic{Kind: kind, Line: line, Message: message})
}

// text returns the source text of a node.
func (e *Extractor) text(node *sitter.Node) string {
	return e.result.NodeText(node)
}
