package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/phpsense/php"
)

// JSONEncoder writes one indented JSON document per declaration.
type JSONEncoder struct {
	w     io.Writer
	class *php.ClassModel
	fn    *php.FunctionModel
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(class *php.ClassModel) error {
	e.class, e.fn = class, nil
	return e.write()
}

func (e *JSONEncoder) EncodeFunction(fn *php.FunctionModel) error {
	e.class, e.fn = nil, fn
	return e.write()
}

func (e *JSONEncoder) write() error {
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	text = append(text, '\n')
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	if e.fn != nil {
		return json.MarshalIndent(buildFunction(e.fn), "", "  ")
	}
	return json.MarshalIndent(e.buildClassData(), "", "  ")
}

type jsonClass struct {
	Name       string         `json:"name"`
	FQN        string         `json:"fqn"`
	Namespace  string         `json:"namespace,omitempty"`
	Kind       string         `json:"kind"`
	Modifiers  []string       `json:"modifiers,omitempty"`
	Extends    []string       `json:"extends,omitempty"`
	Implements []string       `json:"implements,omitempty"`
	Traits     []string       `json:"traits,omitempty"`
	Doc        string         `json:"doc,omitempty"`
	File       string         `json:"file"`
	Line       int            `json:"line"`
	Constants  []jsonMember   `json:"constants,omitempty"`
	Properties []jsonMember   `json:"properties,omitempty"`
	Methods    []jsonFunction `json:"methods,omitempty"`
}

type jsonMember struct {
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Value      string   `json:"value,omitempty"`
	Visibility string   `json:"visibility"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Inherited  bool     `json:"inherited,omitempty"`
	Doc        string   `json:"doc,omitempty"`
	Line       int      `json:"line"`
}

type jsonFunction struct {
	Name       string          `json:"name"`
	FQN        string          `json:"fqn,omitempty"`
	Parameters []jsonParameter `json:"parameters,omitempty"`
	ReturnType string          `json:"returnType,omitempty"`
	Visibility string          `json:"visibility,omitempty"`
	Modifiers  []string        `json:"modifiers,omitempty"`
	Inherited  bool            `json:"inherited,omitempty"`
	Doc        string          `json:"doc,omitempty"`
	File       string          `json:"file"`
	Line       int             `json:"line"`
}

type jsonParameter struct {
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Default   string `json:"default,omitempty"`
	Reference bool   `json:"reference,omitempty"`
	Variadic  bool   `json:"variadic,omitempty"`
}

func (e *JSONEncoder) buildClassData() jsonClass {
	c := e.class
	data := jsonClass{
		Name:       c.Name,
		FQN:        c.FQN,
		Namespace:  c.Namespace,
		Kind:       string(c.Kind),
		Modifiers:  c.Modifiers.Names(),
		Extends:    c.Extends,
		Implements: c.Implements,
		Traits:     c.Traits,
		Doc:        c.Doc.Text(),
		File:       c.File,
		Line:       c.Line,
	}
	for _, k := range sortedMembers(c.Constants) {
		data.Constants = append(data.Constants, buildMember(k))
	}
	for _, p := range sortedMembers(c.Properties) {
		data.Properties = append(data.Properties, buildMember(p))
	}
	for _, m := range sortedMethods(c) {
		fn := buildFunction(m)
		fn.FQN = ""
		data.Methods = append(data.Methods, fn)
	}
	return data
}

func buildMember(p *php.PropertyModel) jsonMember {
	vis, rest := visibility(p.Modifiers)
	return jsonMember{
		Name:       p.Name,
		Type:       p.Type,
		Value:      p.Value,
		Visibility: vis,
		Modifiers:  rest,
		Inherited:  p.Inherited,
		Doc:        p.Doc.Text(),
		Line:       p.Line,
	}
}

func buildFunction(f *php.FunctionModel) jsonFunction {
	fn := jsonFunction{
		Name:       f.Name,
		ReturnType: f.ReturnType,
		Inherited:  f.Inherited,
		Doc:        f.Doc.Text(),
		File:       f.File,
		Line:       f.Line,
		Parameters: buildParameters(f.Parameters),
	}
	if f.Class == "" {
		fn.FQN = f.FQN()
	} else {
		fn.Visibility, fn.Modifiers = visibility(f.Modifiers)
	}
	return fn
}

func buildParameters(params []php.Parameter) []jsonParameter {
	if len(params) == 0 {
		return nil
	}
	result := make([]jsonParameter, len(params))
	for i, p := range params {
		result[i] = jsonParameter{
			Name:      p.Name,
			Type:      p.Type,
			Default:   p.Default,
			Reference: p.IsReference,
			Variadic:  p.IsVariadic,
		}
	}
	return result
}
