// Package extract turns parsed C++ source into structural entity records.
//
// The extractor walks a recovered parse tree in source order, classifies
// declarations (functions, classes, structs, namespaces, extern "C" blocks,
// variables), resolves fully-qualified names from lexical namespace nesting,
// strips template wrappers while retaining their parameter metadata, and
// attaches the nearest preceding documentation comment to each entity.
//
// Extraction never requires compiling the source: macros are captured as
// opaque decorations, unparseable fragments are skipped with a diagnostic,
// and unbalanced scopes are closed implicitly at end of input.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EntityKind classifies an extracted entity.
type EntityKind string

const (
	// FunctionEntity is a free function, member function, constructor or
	// destructor. Declarations and definitions both qualify.
	FunctionEntity EntityKind = "function"
	// ClassEntity is a class definition or forward declaration.
	ClassEntity EntityKind = "class"
	// StructEntity is a struct definition or forward declaration.
	StructEntity EntityKind = "struct"
	// NamespaceEntity is a named or anonymous namespace.
	NamespaceEntity EntityKind = "namespace"
	// ExternCEntity is an extern "C" { ... } block.
	ExternCEntity EntityKind = "extern-C-block"
	// VariableEntity is a namespace- or class-scope variable.
	VariableEntity EntityKind = "variable"
	// ConstantEntity is a const-qualified variable.
	ConstantEntity EntityKind = "constant"
)

// Linkage is the language linkage of an entity.
type Linkage string

const (
	// LinkageDefault is ordinary C++ linkage.
	LinkageDefault Linkage = "default"
	// LinkageC is inherited from an enclosing extern "C" block.
	LinkageC Linkage = "C"
)

// Visibility is the access level of a class/struct member.
type Visibility string

const (
	// VisibilityPublic members are accessible everywhere.
	VisibilityPublic Visibility = "public"
	// VisibilityProtected members are accessible to derived classes.
	VisibilityProtected Visibility = "protected"
	// VisibilityPrivate members are accessible to the class only.
	VisibilityPrivate Visibility = "private"
)

// Param is one function parameter.
type Param struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Type string `json:"type" yaml:"type"`
}

// Entity is a single extracted declaration record.
//
// One declaration yields exactly one record; overloads of a function yield
// distinct records sharing a qualified name. Records are immutable once
// emitted: doc comment and template info attachment completes before the
// entity is appended to its result sequence.
type Entity struct {
	Kind EntityKind `json:"kind" yaml:"kind"`
	// Name is the simple (unqualified) name. Empty for anonymous
	// namespaces and extern "C" blocks.
	Name string `json:"name" yaml:"name"`
	// QualifiedName joins every named enclosing scope and Name with "::".
	QualifiedName string `json:"qualified_name" yaml:"qualified_name"`
	// Signature is the parameter type list and return type for functions,
	// e.g. "(const uint8_t*, bool) -> int". Empty for non-functions.
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
	// SigHash is a stable 8-hex-char hash of the qualified name and
	// signature, used to tell overloads apart.
	SigHash string `json:"sig_hash,omitempty" yaml:"sig_hash,omitempty"`
	// Params and ReturnType carry the structured form of Signature.
	Params     []Param `json:"params,omitempty" yaml:"params,omitempty"`
	ReturnType string  `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	// Template is the stripped template<...> metadata, nil for
	// non-template entities.
	Template *TemplateInfo `json:"template,omitempty" yaml:"template,omitempty"`
	// Doc is the associated documentation comment, nil when none is
	// adjacent or the adjacent comment is not a recognized Doxygen style.
	Doc *DocComment `json:"doc,omitempty" yaml:"doc,omitempty"`
	// Linkage is "C" inside extern "C" blocks, "default" otherwise.
	Linkage Linkage `json:"linkage" yaml:"linkage"`
	// Decorations are opaque attribute and macro tokens attached
	// positionally to the declaration (export macros, virtual, override,
	// = default, storage classes). Never interpreted.
	Decorations []string `json:"decorations,omitempty" yaml:"decorations,omitempty"`
	// Visibility is set for class/struct members only.
	Visibility Visibility `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	// StartLine and EndLine are 1-based source lines.
	StartLine uint32 `json:"line_start" yaml:"line_start"`
	EndLine   uint32 `json:"line_end" yaml:"line_end"`
	// OpenEnded marks entities whose closing brace was missing at end of
	// input; their scope was closed implicitly.
	OpenEnded bool `json:"open_ended,omitempty" yaml:"open_ended,omitempty"`
	// ForwardDecl marks `;`-terminated class/struct declarations with no
	// body.
	ForwardDecl bool `json:"forward_decl,omitempty" yaml:"forward_decl,omitempty"`
	// Children holds member entities for class/struct bodies. Members are
	// not flattened into the top-level sequence.
	Children []Entity `json:"children,omitempty" yaml:"children,omitempty"`
}

// DiagnosticKind classifies a non-fatal extraction diagnostic.
type DiagnosticKind string

const (
	// DiagUnparseable marks a fragment that matched no declaration shape
	// and was skipped.
	DiagUnparseable DiagnosticKind = "unparseable-fragment"
	// DiagUnbalanced marks a scope left open at end of input.
	DiagUnbalanced DiagnosticKind = "unbalanced-scope"
	// DiagOrphanedTemplate marks a template<...> prefix never consumed by
	// a following entity.
	DiagOrphanedTemplate DiagnosticKind = "orphaned-template"
)

// Diagnostic is a recoverable extraction problem. Diagnostics are collected
// and returned alongside the entity sequence; they never abort a run.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Line    uint32         `json:"line" yaml:"line"`
	Message string         `json:"message" yaml:"message"`
}

// FileResult is the outcome of one file's scanning session.
type FileResult struct {
	// File is the identifier the session was created with.
	File string `json:"file" yaml:"file"`
	// Entities are the emitted records, in strict source order.
	Entities []Entity `json:"entities" yaml:"entities"`
	// Diagnostics are the non-fatal problems encountered.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// hashLength is the number of hex chars kept from a signature hash.
const hashLength = 8

// computeSigHash hashes the qualified name and signature to a short stable
// identifier. Overloads share a qualified name but never a hash.
func computeSigHash(qualifiedName, signature string) string {
	sum := sha256.Sum256([]byte(qualifiedName + "|" + signature))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// buildSignature renders the canonical signature string for a function.
func buildSignature(params []Param, returnType string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Type)
	}
	sb.WriteByte(')')
	if returnType != "" {
		sb.WriteString(" -> ")
		sb.WriteString(returnType)
	}
	return sb.String()
}

// paramTypes returns just the parameter type sequence, the unit of overload
// comparison.
func paramTypes(params []Param) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return strings.Join(types, ",")
}

// normalizeName canonicalizes scope-operator spacing in qualified names,
// e.g. "Outer ::  ~Outer" becomes "Outer::~Outer".
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if !strings.Contains(name, "::") {
		return strings.Join(strings.Fields(name), " ")
	}
	parts := strings.Split(name, "::")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, "::")
}
