package config

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// fenceTags are the info-string tags that mark a fenced code block as
// configuration. Anything else (shell transcripts, JSON payloads, prose
// examples in other languages) is left alone.
var fenceTags = map[string]bool{
	"hcl":       true,
	"terraform": true,
	"tf":        true,
}

// extractFences parses the configuration blocks fenced inside a Markdown
// document.
//
// Each snippet is parsed with a start position pointing at the fence's
// first content line, so every range in the resulting bodies refers to the
// Markdown file itself at its real line numbers. Content lines are taken
// verbatim, indentation included; HCL does not mind the leading space and
// columns keep matching the document.
func extractFences(src []byte, filename string) ([]*hcl.File, hcl.Diagnostics) {
	var files []*hcl.File
	var diags hcl.Diagnostics

	text := string(src)
	var (
		inFence    bool
		fenceLen   int
		fenceLine  int
		contentPos hcl.Pos
		content    strings.Builder
	)

	offset := 0
	lineNo := 1
	for offset <= len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		var line string
		if end == -1 {
			line = text[offset:]
			end = len(text) - offset
		} else {
			line = text[offset : offset+end]
			end++
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case !inFence && strings.HasPrefix(trimmed, "```"):
			marker := trimmed[:fenceMarkerLen(trimmed)]
			info := strings.TrimSpace(trimmed[len(marker):])
			tag := strings.ToLower(info)
			if i := strings.IndexAny(tag, " \t"); i >= 0 {
				tag = tag[:i]
			}
			if fenceTags[tag] {
				inFence = true
				fenceLen = len(marker)
				fenceLine = lineNo
				contentPos = hcl.Pos{Line: lineNo + 1, Column: 1, Byte: offset + end}
				content.Reset()
			}

		case inFence && strings.HasPrefix(trimmed, "```") && fenceMarkerLen(trimmed) >= fenceLen && strings.Trim(trimmed, "`") == "":
			inFence = false
			if strings.TrimSpace(content.String()) != "" {
				f, parseDiags := hclsyntax.ParseConfig([]byte(content.String()), filename, contentPos)
				diags = append(diags, parseDiags...)
				if f != nil && f.Body != nil {
					files = append(files, f)
				}
			}

		case inFence:
			content.WriteString(line)
			content.WriteString("\n")
		}

		offset += end
		if end == 0 {
			break
		}
		lineNo++
	}

	if inFence {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "Unterminated code fence",
			Detail:   "A configuration code fence is never closed, so its contents were ignored.",
			Subject: &hcl.Range{
				Filename: filename,
				Start:    hcl.Pos{Line: fenceLine, Column: 1},
				End:      hcl.Pos{Line: fenceLine, Column: 1},
			},
		})
	}

	return files, diags
}

func fenceMarkerLen(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}
