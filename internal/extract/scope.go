package extract

import "strings"

// ScopeKind is the construct that introduced a scope frame.
type ScopeKind string

const (
	// ScopeNamespace is a namespace { ... }.
	ScopeNamespace ScopeKind = "namespace"
	// ScopeClass is a class body.
	ScopeClass ScopeKind = "class"
	// ScopeStruct is a struct body.
	ScopeStruct ScopeKind = "struct"
	// ScopeExternC is an extern "C" { ... } block. Contributes no name
	// segment but switches linkage.
	ScopeExternC ScopeKind = "extern-C"
)

// ScopeFrame is one level of the active qualification path. Only
// scope-introducing constructs push frames; function bodies and other
// arbitrary braces never do, so the stack depth tracks scope nesting, not
// raw brace nesting.
type ScopeFrame struct {
	Kind ScopeKind
	// Name is empty for anonymous namespaces and extern "C" frames.
	Name string
	// OpenedAt is the 1-based line of the opening brace.
	OpenedAt uint32
}

// scopeStack is the per-session stack of open scope frames. It is owned by
// one file's scan session and discarded with it.
type scopeStack struct {
	frames []ScopeFrame
}

func (s *scopeStack) push(f ScopeFrame) {
	s.frames = append(s.frames, f)
}

func (s *scopeStack) pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// qualify joins the named frames root-to-leaf with the simple name.
// Anonymous frames contribute no segment; an empty simple name (anonymous
// namespace record) still carries the enclosing path.
func (s *scopeStack) qualify(name string) string {
	segments := make([]string, 0, len(s.frames)+1)
	for _, f := range s.frames {
		if f.Name != "" {
			segments = append(segments, f.Name)
		}
	}
	if name != "" {
		segments = append(segments, name)
	}
	if len(segments) == 0 {
		return ""
	}
	return normalizeName(strings.Join(segments, "::"))
}

// linkage reports the language linkage implied by the open frames: C when
// any enclosing frame is an extern "C" block.
func (s *scopeStack) linkage() Linkage {
	for _, f := range s.frames {
		if f.Kind == ScopeExternC {
			return LinkageC
		}
	}
	return LinkageDefault
}
