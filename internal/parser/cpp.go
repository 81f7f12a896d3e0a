package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// cppLanguage returns the tree-sitter C++ grammar.
func cppLanguage() *sitter.Language {
	return cpp.GetLanguage()
}

// Node types for scope-introducing and declaration constructs. These are the
// only constructs the extractor descends into; any other brace-delimited
// region (function bodies in particular) is opaque and never contributes a
// scope frame.
const (
	// NodeTranslationUnit is the file root.
	NodeTranslationUnit = "translation_unit"
	// NodeNamespace is a namespace definition.
	NodeNamespace = "namespace_definition"
	// NodeLinkageSpec is an extern "C" { ... } block.
	NodeLinkageSpec = "linkage_specification"
	// NodeTemplate is a template<...> wrapper.
	NodeTemplate = "template_declaration"
	// NodeClass is a class specifier.
	NodeClass = "class_specifier"
	// NodeStruct is a struct specifier.
	NodeStruct = "struct_specifier"
	// NodeFunctionDef is a function definition with a body.
	NodeFunctionDef = "function_definition"
	// NodeDeclaration is a plain declaration (prototypes, variables,
	// and class specifiers wrapped in a declaration).
	NodeDeclaration = "declaration"
	// NodeComment is any comment span.
	NodeComment = "comment"
	// NodeDeclarationList is a namespace or linkage-spec body.
	NodeDeclarationList = "declaration_list"
	// NodeFieldList is a class/struct body.
	NodeFieldList = "field_declaration_list"
)

// PreprocContainers are preprocessor conditionals whose children are scanned
// transparently; the directives themselves are never interpreted.
var PreprocContainers = map[string]bool{
	"preproc_ifdef":  true,
	"preproc_ifndef": true,
	"preproc_if":     true,
	"preproc_elif":   true,
	"preproc_else":   true,
}
