package document

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mofox-ui/pkg/merge"
)

const botConfig = `# MoFox bot config
[inner]
version = "7.1.0" # schema version

[bot]
qq_account = 123456
nickname = 'MoFox'   # shown in groups
alias_names = [
  "mofox", # short
  "fox",
]
platform.name = "qq"

[[bots]]
name = "x"

[[bots]]
name = "y"
`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func render(t *testing.T, doc *Document) string {
	t.Helper()
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return string(out)
}

func apply(t *testing.T, src string, patch map[string]any) string {
	t.Helper()
	doc := mustParse(t, src)
	merge.Merge(doc.Root(), patch)
	return render(t, doc)
}

func TestParse_RoundTripUnchanged(t *testing.T) {
	inputs := []string{
		botConfig,
		"",
		"\n\n# only comments\n",
		"a = 1\r\nb = \"two\"\r\n",
		"no_trailing_newline = true",
		"[ spaced . header ] # note\nkey = \"\"\"\nmulti\nline\n\"\"\"\n",
		"\"quoted key\" = 'lit'\nx = { y = 1, z = [1, 2] }\n",
	}
	for _, in := range inputs {
		if got := render(t, mustParse(t, in)); got != in {
			t.Errorf("round trip changed input\n got: %q\nwant: %q", got, in)
		}
	}
}

func TestParse_MapMatchesUnmarshal(t *testing.T) {
	doc := mustParse(t, botConfig)

	var want map[string]any
	if err := toml.Unmarshal([]byte(botConfig), &want); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := doc.Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %#v\nwant %#v", got, want)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse([]byte("[bot]\nname = \n"))
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *SyntaxError", err)
	}
	if serr.Line != 2 {
		t.Errorf("Line = %d, want 2", serr.Line)
	}
}

func TestMerge_EmptyPatchKeepsBytes(t *testing.T) {
	if got := apply(t, botConfig, map[string]any{}); got != botConfig {
		t.Errorf("empty patch changed document:\n%s", got)
	}
}

func TestMerge_EditKeepsComments(t *testing.T) {
	got := apply(t, botConfig, map[string]any{
		"bot": map[string]any{"nickname": "Fox"},
	})
	want := strings.Replace(botConfig, "nickname = 'MoFox'   # shown in groups",
		`nickname = "Fox"   # shown in groups`, 1)
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestMerge_NewKeyAfterLastStatement(t *testing.T) {
	got := apply(t, botConfig, map[string]any{
		"inner": map[string]any{"stage": "beta"},
	})
	want := strings.Replace(botConfig, "# schema version\n",
		"# schema version\nstage = \"beta\"\n", 1)
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestMerge_NewTableAtEnd(t *testing.T) {
	got := apply(t, botConfig, map[string]any{
		"web": map[string]any{"port": int64(8000)},
	})
	want := botConfig + "\n[web]\nport = 8000\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestMerge_DottedKeyExtendsPrefix(t *testing.T) {
	got := apply(t, botConfig, map[string]any{
		"bot": map[string]any{"platform": map[string]any{"id": int64(9)}},
	})
	want := strings.Replace(botConfig, "platform.name = \"qq\"\n",
		"platform.name = \"qq\"\nplatform.id = 9\n", 1)
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestMerge_ScalarReplacesTable(t *testing.T) {
	src := "title = \"t\"\n\n[inner]\nversion = \"1\"\n\n# bot section\n[bot]\nx = 1\n"
	got := apply(t, src, map[string]any{"inner": "gone"})
	want := "title = \"t\"\ninner = \"gone\"\n\n\n# bot section\n[bot]\nx = 1\n"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestMerge_MappingReplacesScalar(t *testing.T) {
	src := "[bot]\nqq_account = 1 # id\n"
	got := apply(t, src, map[string]any{
		"bot": map[string]any{"qq_account": map[string]any{"id": int64(2)}},
	})
	want := "[bot]\nqq_account = { id = 2 } # id\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMerge_InlineTableMember(t *testing.T) {
	src := "owner = { name = \"a\", id = 2 }\n"
	got := apply(t, src, map[string]any{
		"owner": map[string]any{"id": int64(3)},
	})
	want := "owner = { id = 3, name = \"a\" }\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMerge_ArrayOfTablesReplaced(t *testing.T) {
	doc := mustParse(t, "[[bots]]\nname = \"x\"\n\n[[bots]]\nname = \"y\"\n")
	merge.Merge(doc.Root(), map[string]any{
		"bots": []any{map[string]any{"name": "z"}},
	})
	out := render(t, doc)

	if !strings.HasPrefix(out, "bots = [{ name = \"z\" }]\n") {
		t.Errorf("got %q", out)
	}
	want := map[string]any{"bots": []any{map[string]any{"name": "z"}}}
	if got := mustParse(t, out).Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("reparsed = %#v, want %#v", got, want)
	}
}

func TestMerge_MappingReplacesArrayOfTables(t *testing.T) {
	src := "[[bots]]\nname = \"x\"\n"
	got := apply(t, src, map[string]any{
		"bots": map[string]any{"extra": map[string]any{"on": true}},
	})
	var m map[string]any
	if err := toml.Unmarshal([]byte(got), &m); err != nil {
		t.Fatalf("invalid output %q: %v", got, err)
	}
	want := map[string]any{"bots": map[string]any{"extra": map[string]any{"on": true}}}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("decoded = %#v, want %#v", m, want)
	}
}

func TestTable_ArrayElementUsesDottedKeys(t *testing.T) {
	doc := mustParse(t, "[[bots]]\nname = \"x\"\n\n[[bots]]\nname = \"y\"\n")
	v, ok := doc.Root().Get("bots")
	if !ok {
		t.Fatal("bots not found")
	}
	first := v.([]*Table)[0]
	first.Subtree("extra").Set("on", true)

	want := "[[bots]]\nname = \"x\"\nextra.on = true\n\n[[bots]]\nname = \"y\"\n"
	if got := render(t, doc); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMerge_KeepsCRLF(t *testing.T) {
	got := apply(t, "a = 1\r\nb = 2\r\n", map[string]any{"a": int64(5), "c": "x"})
	want := "a = 5\r\nb = 2\r\nc = \"x\"\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMerge_KeepsSeparator(t *testing.T) {
	got := apply(t, "a\t=\t1\t# c\nb=2\n", map[string]any{"a": int64(2), "b": int64(3)})
	want := "a\t=\t2\t# c\nb=3\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParse_ByteOrderMark(t *testing.T) {
	const src = "\ufeff# bot\nname = \"a\"\n"
	if got := render(t, mustParse(t, src)); got != src {
		t.Errorf("round trip = %q, want %q", got, src)
	}

	got := apply(t, src, map[string]any{"name": "b"})
	want := "\ufeff# bot\nname = \"b\"\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if m := mustParse(t, got).Map(); m["name"] != "b" {
		t.Errorf("Map() = %v, want name b", m)
	}
}

// An edit must leave the layout of every other line alone: padding before
// comments, aligned separators, comments inside multi-line arrays and CRLF.
func TestMerge_KeepsLayoutOfOtherLines(t *testing.T) {
	src := "name    = \"a\"   # padded\r\n" +
		"list = [\r\n  1, # one\r\n  2,\r\n]\r\n" +
		"\r\n" +
		"[sec]\r\n  x = 1\r\n  long_key = 'lit'\r\n"
	got := apply(t, src, map[string]any{"sec": map[string]any{"x": int64(5)}})
	want := strings.Replace(src, "  x = 1\r\n", "  x = 5\r\n", 1)
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	patch := map[string]any{
		"bot":   map[string]any{"nickname": "Fox", "qq_account": int64(42)},
		"extra": map[string]any{"enabled": true},
	}
	once := apply(t, botConfig, patch)
	twice := apply(t, once, patch)
	if once != twice {
		t.Errorf("second apply changed output:\n%s\nvs\n%s", twice, once)
	}
}

func TestBytes_NullIsError(t *testing.T) {
	doc := mustParse(t, "a = 1\n")
	merge.Merge(doc.Root(), map[string]any{"a": nil})
	if _, err := doc.Bytes(); !errors.Is(err, ErrNullValue) {
		t.Errorf("err = %v, want ErrNullValue", err)
	}
}

func TestEmpty_Build(t *testing.T) {
	doc := Empty()
	if got := render(t, doc); got != "" {
		t.Errorf("empty document = %q", got)
	}
	merge.Merge(doc.Root(), map[string]any{
		"a":   int64(1),
		"sub": map[string]any{"s": "v"},
	})
	want := "a = 1\n\n[sub]\ns = \"v\"\n"
	if got := render(t, doc); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarshalJSON_FileOrder(t *testing.T) {
	doc := mustParse(t, "b = 1\na = \"x\"\n[z]\nk = true\nlist = [1.5, nan]\n")
	out, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"b":1,"a":"x","z":{"k":true,"list":[1.5,"nan"]}}`
	if string(out) != want {
		t.Errorf("json = %s, want %s", out, want)
	}
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"plain", `"plain"`},
		{"quote \" and \\ and \n", `"quote \" and \\ and \n"`},
		{true, "true"},
		{int64(-3), "-3"},
		{0.25, "0.25"},
		{[]any{"a", int64(1)}, `["a", 1]`},
		{[]string{"x", "y"}, `["x", "y"]`},
		{map[string]any{"b": int64(2), "a key": "v"}, `{ "a key" = "v", b = 2 }`},
		{map[string]any{}, "{}"},
	}
	for _, tt := range tests {
		got, err := encodeValue(tt.in)
		if err != nil {
			t.Errorf("encodeValue(%#v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("encodeValue(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
