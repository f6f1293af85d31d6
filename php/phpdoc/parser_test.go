package phpdoc

import (
	"reflect"
	"testing"
)

func TestParseSummaryAndDescription(t *testing.T) {
	doc := Parse(`/**
	 * Finds a user by id.
	 *
	 * Looks in the cache first,
	 * then in the database.
	 */`)

	if doc.Summary != "Finds a user by id." {
		t.Errorf("Summary = %q, want %q", doc.Summary, "Finds a user by id.")
	}
	want := "Looks in the cache first,\nthen in the database."
	if doc.Description != want {
		t.Errorf("Description = %q, want %q", doc.Description, want)
	}
	if len(doc.Tags) != 0 {
		t.Errorf("Tags = %v, want none", doc.Tags)
	}
}

func TestParseTags(t *testing.T) {
	doc := Parse(`/**
	 * Saves the model.
	 * @param array $options save options
	 * @param bool $touch
	 * @return bool
	 * @throws \RuntimeException when the
	 *   connection is gone
	 */`)

	tests := []struct {
		tag  string
		want []string
	}{
		{"param", []string{"array $options save options", "bool $touch"}},
		{"return", []string{"bool"}},
		{"throws", []string{"\\RuntimeException when the\nconnection is gone"}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := doc.Tags[tt.tag]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tags[%q] = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
	if doc.Summary != "Saves the model." {
		t.Errorf("Summary = %q", doc.Summary)
	}
}

func TestParseSingleLine(t *testing.T) {
	doc := Parse("/** @var int */")
	if doc.Summary != "" {
		t.Errorf("Summary = %q, want empty", doc.Summary)
	}
	if v, ok := doc.Tag("var"); !ok || v != "int" {
		t.Errorf("Tag(var) = %q, %v, want %q, true", v, ok, "int")
	}

	doc = Parse("/** Short. */")
	if doc.Summary != "Short." {
		t.Errorf("Summary = %q, want %q", doc.Summary, "Short.")
	}
}

func TestParseTagContinuationOfEmptyValue(t *testing.T) {
	doc := Parse("/**\n * @deprecated\n *   use other()\n */")
	if got, _ := doc.Tag("deprecated"); got != "use other()" {
		t.Errorf("Tag(deprecated) = %q, want %q", got, "use other()")
	}
}

func TestDocCommentText(t *testing.T) {
	doc := Parse("/**\n * Summary.\n * More.\n * @return int\n * @api\n */")
	want := "Summary.\n\nMore.\n\n@api\n@return int"
	if got := doc.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}

	var empty *DocComment
	if empty.Text() != "" || !empty.IsEmpty() {
		t.Error("nil DocComment should render empty")
	}
	if _, ok := empty.Tag("x"); ok {
		t.Error("nil DocComment should have no tags")
	}
}
