// Package main implements the genconfig tool that writes palettegen.default.toml
// from config.ExampleConfig().
//
// It is invoked by go generate via the directive in internal/config/config.go.
package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"tools.zach/dev/palettegen/internal/atomicfile"
	"tools.zach/dev/palettegen/internal/config"
)

func main() {
	out, err := render(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}

	// go generate runs from internal/config/; the embedded copy lives at the
	// repo root next to configdata.go.
	outPath := "../../palettegen.default.toml"
	if err := atomicfile.Write(outPath, []byte(out), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote palettegen.default.toml\n")
}

// render encodes cfg as TOML and annotates it with docs: section banners,
// comments above documented keys, commented-out alternatives below them,
// and commented entries for keys the encoder omitted.
func render(cfg *config.Config, docs map[string]config.FieldDoc) (string, error) {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(cfg); err != nil {
		return "", err
	}

	out := []string{
		"# ///////////////////////////////////////////////",
		"# palettegen Configuration",
		"# ///////////////////////////////////////////////",
		"",
	}

	var sectionStack []string
	emittedKeys := map[string]bool{}

	for _, line := range strings.Split(raw.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Section headers: [foo], [foo.bar] and [[foo]]
		if strings.HasPrefix(trimmed, "[") {
			section := strings.Trim(trimmed, "[] ")
			emittedKeys[section] = true
			injectOmitted(&out, sectionStack, emittedKeys, docs)
			sectionStack = parseSectionPath(section)

			out = append(out, "", fmt.Sprintf("# ///// %s /////", sectionName(section)), "")
			if doc, ok := docs[section]; ok {
				out = appendComment(out, doc.Comment)
			}
			out = append(out, trimmed)
			continue
		}

		if !strings.Contains(trimmed, "=") || strings.HasPrefix(trimmed, "#") {
			out = append(out, trimmed)
			continue
		}

		key := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
		fullPath := key
		if len(sectionStack) > 0 {
			fullPath = strings.Join(sectionStack, ".") + "." + key
		}
		emittedKeys[fullPath] = true

		doc := docs[fullPath]
		out = appendComment(out, doc.Comment)
		out = append(out, trimmed)
		out = appendComment(out, strings.Join(doc.Alternatives, "\n"))
	}

	injectOmitted(&out, sectionStack, emittedKeys, docs)

	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n", nil
}

// appendComment appends each line of text as a "# " comment line.
func appendComment(out []string, text string) []string {
	if text == "" {
		return out
	}
	for _, cl := range strings.Split(text, "\n") {
		out = append(out, "# "+cl)
	}
	return out
}

// injectOmitted appends commented-out entries for documented keys of the
// current section that the encoder did not emit (omitempty fields at their
// zero value). Keys are sorted for deterministic output.
func injectOmitted(out *[]string, sectionStack []string, emitted map[string]bool, docs map[string]config.FieldDoc) {
	if len(sectionStack) == 0 {
		return
	}
	prefix := strings.Join(sectionStack, ".") + "."

	var omitted []string
	for path := range docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, ".") || emitted[path] {
			continue
		}
		omitted = append(omitted, path)
	}
	sort.Strings(omitted)

	for _, path := range omitted {
		doc := docs[path]
		*out = append(*out, "")
		*out = appendComment(*out, doc.Comment)
		*out = appendComment(*out, strings.Join(doc.Alternatives, "\n"))
		emitted[path] = true
	}
}

// parseSectionPath splits a dotted TOML section header (e.g. "targets.symbols")
// into its path segments.
func parseSectionPath(section string) []string {
	return strings.Split(section, ".")
}

// sectionName returns a display name for a section header: its last dotted
// segment with the first letter capitalized ("targets.symbols" -> "Symbols").
func sectionName(section string) string {
	parts := strings.Split(section, ".")
	last := parts[len(parts)-1]
	if len(last) == 0 {
		return ""
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
