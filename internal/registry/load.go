package registry

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/mitext/internal/ctxlog"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/resource"
)

const (
	// TypeSection lists application types.
	TypeSection = "type"
	// ConstructorSection lists metaclass and parameter records.
	ConstructorSection = "constructor"
	// DefaultName is the name reported for the embedded schema.
	DefaultName = "constructors.mi"
)

//go:embed constructors.mi
var defaultSchema []byte

var metaclassRegex = regexp.MustCompile(`^(\w+)(?:\s*/\s*(\w+))?$`)

// Default loads the embedded miUML constructor schema.
func Default(ctx context.Context) (*Registry, error) {
	rf, err := resource.Parse(DefaultName, defaultSchema)
	if err != nil {
		return nil, schemaError(err)
	}
	return Load(ctx, rf)
}

// LoadFile loads the constructor schema at path.
func LoadFile(ctx context.Context, path string) (*Registry, error) {
	rf, err := resource.Read(path)
	if err != nil {
		return nil, schemaError(err)
	}
	return Load(ctx, rf)
}

// Load builds a Registry from a sectioned resource file.
func Load(ctx context.Context, rf *resource.File) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	r := New()

	types, _ := rf.Section(TypeSection)
	for _, line := range types {
		if err := r.parseType(line.Trimmed()); err != nil {
			return nil, err.At(rf.Name, line.No, line.Trimmed())
		}
	}

	current := ""
	cons, _ := rf.Section(ConstructorSection)
	for _, line := range cons {
		text := line.Trimmed()
		var err *diag.Error
		if strings.Contains(text, ":") {
			err = r.parseParams(current, text)
		} else {
			current, err = r.parseMetaclass(text)
		}
		if err != nil {
			return nil, err.At(rf.Name, line.No, text)
		}
	}

	logger.Debug("Constructor schema loaded.", "schema", rf.Name, "types", len(r.typeOrder), "calls", len(r.callOrder))
	return r, nil
}

func (r *Registry) parseType(text string) *diag.Error {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return diag.Newf(diag.Schema, "type record needs an app type and a ui type")
	}
	ui, ok := ParseUIType(fields[1])
	if !ok {
		return diag.Newf(diag.Schema, "unknown ui type %q", fields[1])
	}
	if err := r.AddType(fields[0], ui); err != nil {
		return diag.Newf(diag.Schema, "%v", err)
	}
	return nil
}

func (r *Registry) parseMetaclass(text string) (string, *diag.Error) {
	m := metaclassRegex.FindStringSubmatch(text)
	if m == nil {
		return "", diag.Newf(diag.Schema, "bad metaclass record")
	}
	spec, err := r.AddCall(m[1], m[2])
	if err != nil {
		return "", diag.Newf(diag.Schema, "%v", err)
	}
	return spec.Name, nil
}

// parseParams reads a comma separated list of records of the form
// `[ "[" ] name [ "->" scope ] ":" type [ "..." ] [ "]" ]`.
func (r *Registry) parseParams(call, text string) *diag.Error {
	if call == "" {
		return diag.Newf(diag.Schema, "parameter with no metaclass")
	}
	text = strings.TrimRight(text, ", ")
	for _, record := range strings.Split(text, ",") {
		name, typeName, found := strings.Cut(record, ":")
		if !found || strings.Contains(typeName, ":") {
			return diag.Newf(diag.Schema, "bad parameter record %q", strings.TrimSpace(record))
		}
		p := ParamSpec{Optional: strings.Contains(name, "[")}
		name = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(name), "["))
		typeName = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(typeName), "]"))

		if n, scope, ok := strings.Cut(name, "->"); ok {
			name, p.Scope = strings.TrimSpace(n), strings.TrimSpace(scope)
		}
		if strings.HasSuffix(typeName, "...") {
			p.Multiple = true
			typeName = strings.TrimSpace(strings.TrimSuffix(typeName, "..."))
		}

		if name == "" {
			return diag.Newf(diag.Schema, "parameter name missing")
		}
		if typeName == "" {
			return diag.Newf(diag.Schema, "parameter type missing for %q", name)
		}
		p.Name = name
		if err := r.AddParam(call, p, typeName); err != nil {
			return diag.Newf(diag.Schema, "%v", err)
		}
	}
	return nil
}

// ValidateScopes checks that every scope-setting parameter names one of the
// known scope entries.
func (r *Registry) ValidateScopes(known []string) error {
	allowed := make(map[string]struct{}, len(known))
	for _, k := range known {
		allowed[k] = struct{}{}
	}
	var errs []string
	for _, c := range r.Calls() {
		for _, p := range c.Params {
			if p.Scope == "" {
				continue
			}
			if _, ok := allowed[p.Scope]; !ok {
				errs = append(errs, fmt.Sprintf("%s: parameter %q sets unknown scope %q", c.Name, p.Name, p.Scope))
			}
		}
	}
	if len(errs) > 0 {
		return diag.Newf(diag.Schema, "registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func schemaError(err error) *diag.Error {
	return &diag.Error{Kind: diag.Schema, Msg: "cannot load constructor schema", Err: err}
}
