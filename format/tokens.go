package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/phpsense/php/parser"
)

// TokenEncoder writes a token stream either as "line:col kind literal"
// lines or as one JSON array.
type TokenEncoder struct {
	w    io.Writer
	json bool
}

func NewTokenEncoder(name string, w io.Writer) (*TokenEncoder, error) {
	switch name {
	case "", "line":
		return &TokenEncoder{w: w}, nil
	case "json":
		return &TokenEncoder{w: w, json: true}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

func (e *TokenEncoder) Encode(tokens []parser.Token) error {
	text, err := e.MarshalText(tokens)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TokenEncoder) MarshalText(tokens []parser.Token) ([]byte, error) {
	if e.json {
		out := make([]tokenJSON, len(tokens))
		for i, t := range tokens {
			out[i] = tokenJSON{
				Kind:    t.Kind.String(),
				Literal: t.Literal,
				Line:    t.Pos.Line,
				Column:  t.Pos.Column,
				Offset:  t.Pos.Offset,
			}
		}
		text, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(text, '\n'), nil
	}

	var sb strings.Builder
	for _, t := range tokens {
		fmt.Fprintf(&sb, "%d:%d\t%s\t%q\n", t.Pos.Line, t.Pos.Column, t.Kind, t.Literal)
	}
	return []byte(sb.String()), nil
}

type tokenJSON struct {
	Kind    string `json:"kind"`
	Literal string `json:"literal,omitempty"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Offset  int    `json:"offset"`
}
