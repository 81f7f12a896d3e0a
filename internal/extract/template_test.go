package extract

import (
	"testing"
)

func TestTemplateTypeAndNonTypeParams(t *testing.T) {
	res := extractSrc(t, `
template <typename T, int N>
struct Buffer {
    T items[N];
};
`)
	s := mustFind(t, res, "Buffer")
	if s.Template == nil {
		t.Fatal("template info not attached")
	}
	params := s.Template.Params
	if len(params) != 2 {
		t.Fatalf("params = %d, want 2: %+v", len(params), params)
	}
	if params[0].Kind != TypeParam || params[0].Name != "T" {
		t.Errorf("first param = %+v, want type T", params[0])
	}
	if params[1].Kind != NonTypeParam || params[1].Name != "N" {
		t.Errorf("second param = %+v, want non-type N", params[1])
	}
	if s.Template.Specialization {
		t.Error("primary template marked as specialization")
	}
}

func TestTemplateDefaultArgument(t *testing.T) {
	res := extractSrc(t, `
template <typename T = int>
class Box {};
`)
	cls := mustFind(t, res, "Box")
	if cls.Template == nil || len(cls.Template.Params) != 1 {
		t.Fatalf("template info = %+v", cls.Template)
	}
	p := cls.Template.Params[0]
	if p.Default != "int" {
		t.Errorf("default = %q, want int", p.Default)
	}
}

func TestMemberTemplate(t *testing.T) {
	res := extractSrc(t, `
class Serializer {
public:
    template <typename T>
    void write(const T& value);
};
`)
	fn := mustFind(t, res, "Serializer::write")
	if fn.Template == nil {
		t.Fatal("member template info not attached")
	}
	if len(fn.Template.Params) != 1 || fn.Template.Params[0].Name != "T" {
		t.Errorf("params = %+v", fn.Template.Params)
	}
	if cls := mustFind(t, res, "Serializer"); cls.Template != nil {
		t.Error("member template info leaked onto the class")
	}
}

func TestOrphanedTemplateDiagnostic(t *testing.T) {
	res := extractSrc(t, `
template <typename T>
int not_a_function_or_class = 0;
`)
	var found bool
	for _, d := range res.Diagnostics {
		if d.Kind == DiagOrphanedTemplate {
			found = true
		}
	}
	if !found {
		t.Errorf("no orphaned-template diagnostic; got %+v", res.Diagnostics)
	}
}

func TestTemplateConsumedOnce(t *testing.T) {
	res := extractSrc(t, `
template <typename T>
T identity(T value);

void plain();
`)
	if fn := mustFind(t, res, "identity"); fn.Template == nil {
		t.Fatal("template info not attached to wrapped function")
	}
	if fn := mustFind(t, res, "plain"); fn.Template != nil {
		t.Errorf("template info re-attached to later entity: %+v", fn.Template)
	}
}
