package lang

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

func parseFiles(t *testing.T, srcs ...string) []*hcl.File {
	t.Helper()
	files := make([]*hcl.File, len(srcs))
	for i, src := range srcs {
		name := fmt.Sprintf("test%d.hcl", i)
		f, diags := hclsyntax.ParseConfig([]byte(unindent(src)), name, hcl.InitialPos)
		if diags.HasErrors() {
			t.Fatalf("parse %s: %s", name, diags)
		}
		files[i] = f
	}
	return files
}

func unindent(s string) string {
	s = strings.TrimPrefix(s, "\n")
	lines := strings.Split(s, "\n")
	indent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if n := len(line) - len(trimmed); indent == -1 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		}
	}
	return strings.Join(lines, "\n")
}

func diagStrings(diags hcl.Diagnostics) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Summary + ": " + d.Detail
	}
	return out
}

func TestDecodeModuleVariables(t *testing.T) {
	files := parseFiles(t, `
		variable "instance_count" {
		  type        = number
		  default     = 2
		  description = "How many instances to create."
		}

		variable "environment" {
		  type = string
		}

		variable "db_password" {
		  type      = string
		  sensitive = true

		  validation {
		    condition     = length(var.db_password) >= 12
		    error_message = "The password must be at least 12 characters."
		  }

		  validation {
		    condition     = var.db_password != "changeme"
		    error_message = "The default placeholder password is not allowed."
		  }
		}
	`)

	m, diags := DecodeModule(files)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if got, want := len(m.Variables), 3; got != want {
		t.Fatalf("got %d variables, want %d", got, want)
	}

	count := m.Variables["instance_count"]
	if !count.Type.Equals(cty.Number) {
		t.Errorf("instance_count type = %#v, want number", count.Type)
	}
	if !count.Default.RawEquals(cty.NumberIntVal(2)) {
		t.Errorf("instance_count default = %#v, want 2", count.Default)
	}
	if count.Required() {
		t.Error("instance_count reported required despite default")
	}
	if count.Description == "" {
		t.Error("instance_count description not decoded")
	}

	env := m.Variables["environment"]
	if !env.Required() {
		t.Error("environment not reported required")
	}
	if !env.Nullable {
		t.Error("environment should default to nullable")
	}

	pw := m.Variables["db_password"]
	if !pw.Sensitive {
		t.Error("db_password not sensitive")
	}
	if got, want := len(pw.Validations), 2; got != want {
		t.Fatalf("db_password has %d validations, want %d", got, want)
	}
	if got, want := pw.Validations[0].ErrorMessage, "The password must be at least 12 characters."; got != want {
		t.Errorf("first validation message = %q, want %q", got, want)
	}
}

func TestDecodeModuleResources(t *testing.T) {
	files := parseFiles(t, `
		resource "aws_vpc" "main" {
		  cidr_block = "10.0.0.0/16"
		}

		resource "aws_instance" "web" {
		  count      = 2
		  depends_on = [aws_vpc.main]
		  name       = "web-${count.index}"
		}
	`)

	m, diags := DecodeModule(files)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if got, want := len(m.Resources), 2; got != want {
		t.Fatalf("got %d resources, want %d", got, want)
	}

	web := m.Resources["aws_instance.web"]
	if web == nil {
		t.Fatal("aws_instance.web not decoded")
	}
	if web.Count == nil {
		t.Error("count expression not captured")
	}
	if web.ForEach != nil {
		t.Error("for_each unexpectedly set")
	}
	if got, want := len(web.DependsOn), 1; got != want {
		t.Fatalf("got %d depends_on entries, want %d", got, want)
	}
	if got, want := web.DependsOn[0].Subject, ResourceAddr("aws_vpc", "main"); got != want {
		t.Errorf("depends_on subject = %s, want %s", got, want)
	}

	attrs, attrDiags := web.Config.JustAttributes()
	if attrDiags.HasErrors() {
		t.Fatalf("config attributes: %s", attrDiags)
	}
	if _, ok := attrs["name"]; !ok {
		t.Error("resource body lost the name attribute")
	}
	if _, ok := attrs["count"]; ok {
		t.Error("count leaked into the resource config body")
	}
}

func TestDecodeModuleOutputs(t *testing.T) {
	files := parseFiles(t, `
		variable "token" {
		  type      = string
		  sensitive = true
		}

		output "token_length" {
		  value       = length(var.token)
		  description = "Length of the configured token."
		}

		output "token" {
		  value     = var.token
		  sensitive = true
		}
	`)

	m, diags := DecodeModule(files)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if got, want := len(m.Outputs), 2; got != want {
		t.Fatalf("got %d outputs, want %d", got, want)
	}
	if !m.Outputs["token"].Sensitive {
		t.Error("output token not sensitive")
	}
	if m.Outputs["token_length"].Sensitive {
		t.Error("output token_length wrongly sensitive")
	}
}

func TestDecodeModuleDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name: "TypoInBlockType",
			files: []string{`
				resorce "aws_vpc" "main" {}
			`},
			want: []string{`Did you mean "resource"?`},
		},
		{
			name: "TopLevelAttribute",
			files: []string{`
				region = "us-west-2"
			`},
			want: []string{"Unexpected top-level attribute"},
		},
		{
			name: "DuplicateVariable",
			files: []string{`
				variable "region" {
				  type = string
				}
			`, `
				variable "region" {
				  type = string
				}
			`},
			want: []string{"Duplicate variable declaration", "test0.hcl"},
		},
		{
			name: "DuplicateLocal",
			files: []string{`
				locals {
				  prefix = "a"
				}

				locals {
				  prefix = "b"
				}
			`},
			want: []string{"Duplicate local value declaration"},
		},
		{
			name: "CountForEachConflict",
			files: []string{`
				resource "aws_instance" "web" {
				  count    = 2
				  for_each = ["a", "b"]
				}
			`},
			want: []string{`Conflicting "count" and "for_each" arguments`},
		},
		{
			name: "DependsOnNonResource",
			files: []string{`
				variable "region" {
				  type = string
				}

				resource "aws_instance" "web" {
				  depends_on = [var.region]
				}
			`},
			want: []string{"Invalid depends_on entry"},
		},
		{
			name: "ValidationRefersToOtherVariable",
			files: []string{`
				variable "min" {
				  type = number
				}

				variable "max" {
				  type = number

				  validation {
				    condition     = var.max > var.min
				    error_message = "max must exceed min."
				  }
				}
			`},
			want: []string{`can only refer to the variable itself`},
		},
		{
			name: "ValidationIgnoresItsVariable",
			files: []string{`
				variable "port" {
				  type = number

				  validation {
				    condition     = 1 > 0
				    error_message = "Always true."
				  }
				}
			`},
			want: []string{"must refer to var.port"},
		},
		{
			name: "EmptyErrorMessage",
			files: []string{`
				variable "port" {
				  type = number

				  validation {
				    condition     = var.port > 0
				    error_message = ""
				  }
				}
			`},
			want: []string{"Invalid validation error message"},
		},
		{
			name: "DefaultDoesNotConform",
			files: []string{`
				variable "ports" {
				  type    = list(number)
				  default = [80, "https"]
				}
			`},
			want: []string{"Invalid default value for variable", "number required, but have string"},
		},
		{
			name: "NullDefaultNotNullable",
			files: []string{`
				variable "region" {
				  type     = string
				  nullable = false
				  default  = null
				}
			`},
			want: []string{"null default value is not valid"},
		},
		{
			name: "MissingVariableLabel",
			files: []string{`
				variable {
				  type = string
				}
			`},
			want: []string{"Missing name for variable"},
		},
		{
			name: "ExtraResourceLabel",
			files: []string{`
				resource "aws_vpc" "main" "extra" {}
			`},
			want: []string{"Extraneous label for resource"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := DecodeModule(parseFiles(t, tt.files...))
			if !diags.HasErrors() {
				t.Fatal("expected diagnostics, got none")
			}
			all := strings.Join(diagStrings(diags), "\n")
			for _, want := range tt.want {
				if !strings.Contains(all, want) {
					t.Errorf("diagnostics missing %q:\n%s", want, all)
				}
			}
		})
	}
}

func TestVariableValidateFirstFailure(t *testing.T) {
	files := parseFiles(t, `
		variable "port" {
		  type = number

		  validation {
		    condition     = var.port > 0
		    error_message = "The port must be positive."
		  }

		  validation {
		    condition     = var.port < 65536
		    error_message = "The port must fit in 16 bits."
		  }
		}
	`)

	m, diags := DecodeModule(files)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	port := m.Variables["port"]

	tests := []struct {
		name string
		val  cty.Value
		want string
	}{
		{"PassesBoth", cty.NumberIntVal(443), ""},
		{"FailsFirstRuleOnly", cty.NumberIntVal(-1), "The port must be positive."},
		{"FailsSecondRule", cty.NumberIntVal(70000), "The port must fit in 16 bits."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := port.Validate(tt.val)
			if tt.want == "" {
				if len(diags) != 0 {
					t.Fatalf("unexpected diagnostics: %s", diags)
				}
				return
			}
			if got, want := len(diags), 1; got != want {
				t.Fatalf("got %d diagnostics, want %d (validation must stop at the first failure):\n%s", got, want, diags)
			}
			if diags[0].Detail != tt.want {
				t.Errorf("detail = %q, want %q", diags[0].Detail, tt.want)
			}
		})
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		expr    string
		want    Addr
		wantErr string
	}{
		{expr: "var.region", want: VariableAddr("region")},
		{expr: "local.prefix", want: LocalAddr("prefix")},
		{expr: "aws_instance.web", want: ResourceAddr("aws_instance", "web")},
		{expr: "aws_instance.web.id", want: ResourceAddr("aws_instance", "web")},
		{expr: "output.name", wantErr: "cannot be referenced"},
		{expr: "var", wantErr: "must be followed by a variable name"},
		{expr: "aws_instance", wantErr: "must be followed by the resource name"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			traversal, travDiags := hclsyntax.ParseTraversalAbs([]byte(tt.expr), "test.hcl", hcl.InitialPos)
			if travDiags.HasErrors() {
				t.Fatalf("parse traversal: %s", travDiags)
			}
			ref, diags := ParseRef(traversal)
			if tt.wantErr != "" {
				if !diags.HasErrors() {
					t.Fatalf("expected error containing %q, got none", tt.wantErr)
				}
				all := strings.Join(diagStrings(diags), "\n")
				if !strings.Contains(all, tt.wantErr) {
					t.Errorf("diagnostics missing %q:\n%s", tt.wantErr, all)
				}
				return
			}
			if diags.HasErrors() {
				t.Fatalf("unexpected diagnostics: %s", diags)
			}
			if ref.Subject != tt.want {
				t.Errorf("subject = %s, want %s", ref.Subject, tt.want)
			}
		})
	}
}

func TestReferencesSkipExpansionScopes(t *testing.T) {
	expr, diags := hclsyntax.ParseExpression([]byte(`"${var.prefix}-${count.index}-${each.key}"`), "test.hcl", hcl.InitialPos)
	if diags.HasErrors() {
		t.Fatalf("parse expression: %s", diags)
	}

	refs, refDiags := References(expr)
	if refDiags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", refDiags)
	}
	if got, want := len(refs), 1; got != want {
		t.Fatalf("got %d references, want %d", got, want)
	}
	if got, want := refs[0].Subject, VariableAddr("prefix"); got != want {
		t.Errorf("subject = %s, want %s", got, want)
	}
}

func TestFunctions(t *testing.T) {
	funcs := Functions()

	call := func(name string, args ...cty.Value) cty.Value {
		t.Helper()
		fn, ok := funcs[name]
		if !ok {
			t.Fatalf("function %q not in table", name)
		}
		got, err := fn.Call(args)
		if err != nil {
			t.Fatalf("%s: %s", name, err)
		}
		return got
	}

	if got := call("length", cty.StringVal("abc")); !got.RawEquals(cty.NumberIntVal(3)) {
		t.Errorf("length of string = %#v, want 3", got)
	}
	if got := call("length", cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)})); !got.RawEquals(cty.NumberIntVal(2)) {
		t.Errorf("length of list = %#v, want 2", got)
	}
	if got := call("tostring", cty.NumberIntVal(80)); !got.RawEquals(cty.StringVal("80")) {
		t.Errorf("tostring(80) = %#v, want \"80\"", got)
	}
	if got := call("alltrue", cty.ListVal([]cty.Value{cty.True, cty.False})); !got.RawEquals(cty.False) {
		t.Errorf("alltrue = %#v, want false", got)
	}
	if got := call("anytrue", cty.ListVal([]cty.Value{cty.False, cty.True})); !got.RawEquals(cty.True) {
		t.Errorf("anytrue = %#v, want true", got)
	}
	if got := call("upper", cty.StringVal("ok")); !got.RawEquals(cty.StringVal("OK")) {
		t.Errorf("upper = %#v, want OK", got)
	}
}
