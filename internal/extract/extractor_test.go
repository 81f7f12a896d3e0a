package extract

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func extractSrc(t *testing.T, src string) *FileResult {
	t.Helper()
	res, err := Source(context.Background(), "test.h", []byte(src), DefaultOptions())
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	return res
}

func findEntity(entities []Entity, qualified string) *Entity {
	for i := range entities {
		if entities[i].QualifiedName == qualified {
			return &entities[i]
		}
		if found := findEntity(entities[i].Children, qualified); found != nil {
			return found
		}
	}
	return nil
}

func mustFind(t *testing.T, res *FileResult, qualified string) *Entity {
	t.Helper()
	ent := findEntity(res.Entities, qualified)
	if ent == nil {
		t.Fatalf("entity %q not found; got %v", qualified, entityNames(res.Entities))
	}
	return ent
}

func entityNames(entities []Entity) []string {
	var names []string
	for _, e := range entities {
		names = append(names, string(e.Kind)+":"+e.QualifiedName)
		names = append(names, entityNames(e.Children)...)
	}
	return names
}

func hasDecoration(ent *Entity, d string) bool {
	for _, dec := range ent.Decorations {
		if dec == d {
			return true
		}
	}
	return false
}

func TestFreeFunction(t *testing.T) {
	res := extractSrc(t, `
int add(int a, int b) {
    return a + b;
}
`)
	ent := mustFind(t, res, "add")
	if ent.Kind != FunctionEntity {
		t.Errorf("kind = %q, want function", ent.Kind)
	}
	if ent.Name != "add" {
		t.Errorf("name = %q, want add", ent.Name)
	}
	if ent.Signature != "(int, int) -> int" {
		t.Errorf("signature = %q", ent.Signature)
	}
	if ent.Linkage != LinkageDefault {
		t.Errorf("linkage = %q, want default", ent.Linkage)
	}
	if ent.StartLine != 2 {
		t.Errorf("start line = %d, want 2", ent.StartLine)
	}
}

func TestNestedNamespaceQualification(t *testing.T) {
	res := extractSrc(t, `
namespace outer {
namespace inner {

void inner_function();

}  // namespace inner
}  // namespace outer
`)
	outer := mustFind(t, res, "outer")
	if outer.Kind != NamespaceEntity {
		t.Errorf("outer kind = %q, want namespace", outer.Kind)
	}
	inner := mustFind(t, res, "outer::inner")
	if inner.Kind != NamespaceEntity {
		t.Errorf("inner kind = %q, want namespace", inner.Kind)
	}
	fn := mustFind(t, res, "outer::inner::inner_function")
	if fn.Kind != FunctionEntity {
		t.Errorf("function kind = %q", fn.Kind)
	}
	if fn.Name != "inner_function" {
		t.Errorf("simple name = %q, want inner_function", fn.Name)
	}
}

func TestAnonymousNamespaceKeepsEnclosingPath(t *testing.T) {
	res := extractSrc(t, `
namespace outer {
namespace {

void helper();

}  // namespace
}  // namespace outer
`)
	var anon *Entity
	for i := range res.Entities {
		if res.Entities[i].Kind == NamespaceEntity && res.Entities[i].Name == "" {
			anon = &res.Entities[i]
			break
		}
	}
	if anon == nil {
		t.Fatalf("anonymous namespace record not emitted; got %v", entityNames(res.Entities))
	}
	if anon.QualifiedName != "outer" {
		t.Errorf("anonymous namespace qualified name = %q, want %q", anon.QualifiedName, "outer")
	}
	helper := mustFind(t, res, "outer::helper")
	if helper.Name != "helper" {
		t.Errorf("simple name = %q, want helper", helper.Name)
	}
}

func TestTemplateFunctionStripped(t *testing.T) {
	res := extractSrc(t, `
template <typename T>
T max_value(T a, T b) {
    return a > b ? a : b;
}
`)
	fn := mustFind(t, res, "max_value")
	if fn.Template == nil {
		t.Fatal("template info not attached")
	}
	if len(fn.Template.Params) != 1 {
		t.Fatalf("template params = %d, want 1", len(fn.Template.Params))
	}
	p := fn.Template.Params[0]
	if p.Kind != TypeParam || p.Name != "T" {
		t.Errorf("template param = %+v, want type T", p)
	}
	if fn.Signature != "(T, T) -> T" {
		t.Errorf("signature = %q, want (T, T) -> T", fn.Signature)
	}
	if strings.Contains(fn.QualifiedName, "<") {
		t.Errorf("qualified name %q carries template text", fn.QualifiedName)
	}
}

func TestTemplateClassMembers(t *testing.T) {
	res := extractSrc(t, `
template <typename T>
class Container {
public:
    Container();
    void push(const T& value);

private:
    T* data_;
};
`)
	cls := mustFind(t, res, "Container")
	if cls.Kind != ClassEntity {
		t.Errorf("kind = %q, want class", cls.Kind)
	}
	if cls.Template == nil || len(cls.Template.Params) != 1 {
		t.Fatalf("template info = %+v", cls.Template)
	}

	ctor := mustFind(t, res, "Container::Container")
	if ctor.ReturnType != "" {
		t.Errorf("constructor return type = %q, want empty", ctor.ReturnType)
	}
	if ctor.Visibility != VisibilityPublic {
		t.Errorf("constructor visibility = %q", ctor.Visibility)
	}
	if ctor.Template != nil {
		t.Error("class template info leaked onto member")
	}

	push := mustFind(t, res, "Container::push")
	if push.Signature != "(const T&) -> void" {
		t.Errorf("push signature = %q", push.Signature)
	}

	data := mustFind(t, res, "Container::data_")
	if data.Kind != VariableEntity {
		t.Errorf("data_ kind = %q, want variable", data.Kind)
	}
	if data.Visibility != VisibilityPrivate {
		t.Errorf("data_ visibility = %q, want private", data.Visibility)
	}
}

func TestTemplateSpecialization(t *testing.T) {
	res := extractSrc(t, `
template <typename T>
class Wrapper {};

template <>
class Wrapper<bool> {};
`)
	var specialized *Entity
	for i := range res.Entities {
		e := &res.Entities[i]
		if e.Name == "Wrapper" && e.Template != nil && e.Template.Specialization {
			specialized = e
		}
	}
	if specialized == nil {
		t.Fatalf("specialization record not found; got %v", entityNames(res.Entities))
	}
	if specialized.QualifiedName != "Wrapper" {
		t.Errorf("specialization qualified name = %q, want Wrapper", specialized.QualifiedName)
	}
}

func TestOverloadsShareNameNotHash(t *testing.T) {
	res := extractSrc(t, `
namespace webrtc {
namespace rtp_rtcp {

class RtpEncoder {
public:
    int Send(const uint8_t* payload);
    int Send(const uint8_t* payload, bool marker);
};

}  // namespace rtp_rtcp
}  // namespace webrtc
`)
	cls := mustFind(t, res, "webrtc::rtp_rtcp::RtpEncoder")
	var sends []Entity
	for _, m := range cls.Children {
		if m.Name == "Send" {
			sends = append(sends, m)
		}
	}
	if len(sends) != 2 {
		t.Fatalf("Send overloads = %d, want 2", len(sends))
	}
	if sends[0].QualifiedName != "webrtc::rtp_rtcp::RtpEncoder::Send" {
		t.Errorf("qualified name = %q", sends[0].QualifiedName)
	}
	if sends[0].SigHash == sends[1].SigHash {
		t.Errorf("overloads share sig hash %q", sends[0].SigHash)
	}
	if sends[0].Signature == sends[1].Signature {
		t.Errorf("overloads share signature %q", sends[0].Signature)
	}
}

func TestExternCLinkage(t *testing.T) {
	res := extractSrc(t, `
extern "C" {

void init_engine();
int engine_version();

}

void cpp_function();
`)
	var block *Entity
	for i := range res.Entities {
		if res.Entities[i].Kind == ExternCEntity {
			block = &res.Entities[i]
		}
	}
	if block == nil {
		t.Fatalf("extern \"C\" block record not found; got %v", entityNames(res.Entities))
	}
	if block.Linkage != LinkageC {
		t.Errorf("block linkage = %q", block.Linkage)
	}

	if ent := mustFind(t, res, "init_engine"); ent.Linkage != LinkageC {
		t.Errorf("init_engine linkage = %q, want C", ent.Linkage)
	}
	if ent := mustFind(t, res, "engine_version"); ent.Linkage != LinkageC {
		t.Errorf("engine_version linkage = %q, want C", ent.Linkage)
	}
	if ent := mustFind(t, res, "cpp_function"); ent.Linkage != LinkageDefault {
		t.Errorf("cpp_function linkage = %q, want default", ent.Linkage)
	}
}

func TestForwardDeclaration(t *testing.T) {
	res := extractSrc(t, `
class Widget;

struct Point;
`)
	w := mustFind(t, res, "Widget")
	if !w.ForwardDecl {
		t.Error("Widget not marked forward declaration")
	}
	if len(w.Children) != 0 {
		t.Errorf("forward declaration has %d children", len(w.Children))
	}
	p := mustFind(t, res, "Point")
	if p.Kind != StructEntity || !p.ForwardDecl {
		t.Errorf("Point = %+v, want forward struct", p)
	}
}

func TestVisibilityDefaults(t *testing.T) {
	res := extractSrc(t, `
class Secret {
    void hidden();
public:
    void shown();
};

struct Open {
    void visible();
};
`)
	if ent := mustFind(t, res, "Secret::hidden"); ent.Visibility != VisibilityPrivate {
		t.Errorf("class default visibility = %q, want private", ent.Visibility)
	}
	if ent := mustFind(t, res, "Secret::shown"); ent.Visibility != VisibilityPublic {
		t.Errorf("visibility after public: = %q", ent.Visibility)
	}
	if ent := mustFind(t, res, "Open::visible"); ent.Visibility != VisibilityPublic {
		t.Errorf("struct default visibility = %q, want public", ent.Visibility)
	}
}

func TestConstantInNamespace(t *testing.T) {
	res := extractSrc(t, `
namespace math {
namespace constants {

const double PI = 3.14159265358979;

}  // namespace constants
}  // namespace math
`)
	pi := mustFind(t, res, "math::constants::PI")
	if pi.Kind != ConstantEntity {
		t.Errorf("PI kind = %q, want constant", pi.Kind)
	}
}

func TestClassDefinitionWithTrailingVariable(t *testing.T) {
	res := extractSrc(t, `
class Registry {
public:
    void add();
} instance;
`)
	cls := mustFind(t, res, "Registry")
	if cls.Kind != ClassEntity {
		t.Errorf("Registry kind = %q, want class", cls.Kind)
	}
	add := mustFind(t, res, "Registry::add")
	if add.Visibility != VisibilityPublic {
		t.Errorf("add visibility = %q, want public", add.Visibility)
	}
	inst := mustFind(t, res, "instance")
	if inst.Kind != VariableEntity {
		t.Errorf("instance kind = %q, want variable", inst.Kind)
	}
}

func TestBareStructUseEmitsOnlyVariable(t *testing.T) {
	res := extractSrc(t, `
struct Point p;
`)
	if found := findEntity(res.Entities, "Point"); found != nil {
		t.Errorf("bare type use emitted a record: %v", found)
	}
	p := mustFind(t, res, "p")
	if p.Kind != VariableEntity {
		t.Errorf("p kind = %q, want variable", p.Kind)
	}
}

func TestOutOfClassDefinition(t *testing.T) {
	res := extractSrc(t, `
class Rectangle {
public:
    int area();
};

int Rectangle::area() {
    return 0;
}
`)
	// Declaration inside the body and definition outside resolve to the
	// same qualified name.
	ents := res.Entities
	def := findEntity(ents[1:], "Rectangle::area")
	if def == nil {
		def = mustFind(t, res, "Rectangle::area")
	}
	if def.Name != "area" {
		t.Errorf("simple name = %q, want area", def.Name)
	}
	if def.QualifiedName != "Rectangle::area" {
		t.Errorf("qualified name = %q", def.QualifiedName)
	}
}

func TestMacroBrokenClassRecovered(t *testing.T) {
	res := extractSrc(t, `
class RTC_EXPORT RtpEncoder {
public:
    virtual ~RtpEncoder() = default;

    virtual int Send(const uint8_t* payload) = 0;
    virtual int Send(const uint8_t* payload, bool marker) = 0;
};
`)
	cls := mustFind(t, res, "RtpEncoder")
	if cls.Kind != ClassEntity {
		t.Fatalf("kind = %q, want class", cls.Kind)
	}
	if !hasDecoration(cls, "RTC_EXPORT") {
		t.Errorf("export macro not captured, decorations = %v", cls.Decorations)
	}

	var sends []Entity
	for _, m := range cls.Children {
		if m.Name == "Send" {
			sends = append(sends, m)
		}
	}
	if len(sends) != 2 {
		t.Fatalf("Send overloads = %d, want 2; members = %v", len(sends), entityNames(cls.Children))
	}
	if sends[0].SigHash == sends[1].SigHash {
		t.Errorf("overloads share sig hash %q", sends[0].SigHash)
	}
	for _, s := range sends {
		if s.Visibility != VisibilityPublic {
			t.Errorf("Send visibility = %q, want public", s.Visibility)
		}
	}
}

func TestUnbalancedScopeDiagnostic(t *testing.T) {
	res := extractSrc(t, `namespace incomplete {

void still_extracted();
`)
	ns := mustFind(t, res, "incomplete")
	if !ns.OpenEnded {
		t.Error("namespace not marked open-ended")
	}
	mustFind(t, res, "incomplete::still_extracted")

	var found bool
	for _, d := range res.Diagnostics {
		if d.Kind == DiagUnbalanced {
			found = true
		}
	}
	if !found {
		t.Errorf("no unbalanced-scope diagnostic; got %v", res.Diagnostics)
	}
}

func TestDeclarationsOptional(t *testing.T) {
	src := `
void prototype_only(int x);

void with_body() {}
`
	res, err := Source(context.Background(), "test.h", []byte(src), Options{IncludeDeclarations: false})
	if err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	if findEntity(res.Entities, "prototype_only") != nil {
		t.Error("prototype emitted with declarations disabled")
	}
	if findEntity(res.Entities, "with_body") == nil {
		t.Error("definition missing with declarations disabled")
	}
}

func TestDuplicateDeclarationMerged(t *testing.T) {
	res := extractSrc(t, `
void run(int x);

void run(int x) {}
`)
	var count int
	for _, e := range res.Entities {
		if e.QualifiedName == "run" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("run records = %d, want 1 after merge", count)
	}

	// A different parameter list is an overload, not a duplicate.
	res = extractSrc(t, `
void run(int x);
void run(double x);
`)
	count = 0
	for _, e := range res.Entities {
		if e.QualifiedName == "run" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("overload records = %d, want 2", count)
	}
}

func TestInvalidEncodingFatal(t *testing.T) {
	_, err := Source(context.Background(), "bad.h", []byte{0xff, 0xfe, 0x00, 0x41}, DefaultOptions())
	if err == nil {
		t.Fatal("invalid encoding accepted")
	}
}

func TestExtractionIdempotent(t *testing.T) {
	src := `
/// Entry point helper.
namespace app {

template <typename T>
T clamp(T v, T lo, T hi);

class RTC_EXPORT Engine {
public:
    void Start();
    void Start(int mode);
};

const int kVersion = 3;

}  // namespace app

extern "C" {
void app_init();
}
`
	first := extractSrc(t, src)
	second := extractSrc(t, src)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated extraction of identical input differs")
	}
}

func TestSourceOrderPreserved(t *testing.T) {
	res := extractSrc(t, `
void first();
void second();
void third();
`)
	var lines []uint32
	for _, e := range res.Entities {
		lines = append(lines, e.StartLine)
	}
	for i := 1; i < len(lines); i++ {
		if lines[i] < lines[i-1] {
			t.Fatalf("entities out of source order: %v", lines)
		}
	}
}
