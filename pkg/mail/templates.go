// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/osteele/liquid"
)

// Template identifies one of the mail templates under the template root.
type Template string

const (
	SecretSanta    Template = "secret-santa"
	MessagingCode  Template = "messaging-code"
	EmailForTarget Template = "email-for-target"
	EmailForSS     Template = "email-for-ss"
)

var templateFiles = map[Template]string{
	SecretSanta:    "email.liquid",
	MessagingCode:  "code.liquid",
	EmailForTarget: "target.liquid",
	EmailForSS:     "secretSanta.liquid",
}

func (t Template) String() string {
	return string(t)
}

// File returns the template's path relative to the template root, or "" for
// an unknown template.
func (t Template) File() string {
	return templateFiles[t]
}

// Templates lists all known templates sorted by name.
func Templates() []Template {
	out := make([]Template, 0, len(templateFiles))
	for t := range templateFiles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseTemplate resolves a template name such as "messaging-code".
func ParseTemplate(name string) (Template, error) {
	t := Template(name)
	if _, ok := templateFiles[t]; !ok {
		return "", newError(CodeTemplateNotFound, fmt.Sprintf("unknown template %q", name), nil)
	}
	return t, nil
}

// TemplateStore reads templates from a file system on every render, so edits
// on disk are picked up without a restart.
type TemplateStore struct {
	fsys   fs.FS
	engine *liquid.Engine
}

// NewTemplateStore returns a store rooted at fsys, e.g. os.DirFS("./templates").
func NewTemplateStore(fsys fs.FS) *TemplateStore {
	return &TemplateStore{
		fsys:   fsys,
		engine: liquid.NewEngine(),
	}
}

// Load returns the raw template text.
func (s *TemplateStore) Load(t Template) (string, error) {
	file := t.File()
	if file == "" {
		return "", newError(CodeTemplateNotFound, fmt.Sprintf("unknown template %q", t), nil)
	}
	raw, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		return "", newError(CodeTemplateNotFound, fmt.Sprintf("reading template %q", t), err)
	}
	return string(raw), nil
}

// Render loads t and renders it with substitutions. Missing keys render as
// empty strings.
func (s *TemplateStore) Render(t Template, substitutions map[string]any) (string, error) {
	raw, err := s.Load(t)
	if err != nil {
		return "", err
	}
	return s.RenderString(t.String(), raw, substitutions)
}

// RenderString compiles and renders source directly. name is only used in
// error messages.
func (s *TemplateStore) RenderString(name, source string, substitutions map[string]any) (string, error) {
	tpl, perr := s.engine.ParseString(source)
	if perr != nil {
		return "", newError(CodeTemplateInvalid, fmt.Sprintf("parsing template %q", name), perr)
	}
	if substitutions == nil {
		substitutions = map[string]any{}
	}
	out, rerr := tpl.RenderString(liquid.Bindings(substitutions))
	if rerr != nil {
		return "", newError(CodeTemplateInvalid, fmt.Sprintf("rendering template %q", name), rerr)
	}
	return out, nil
}
