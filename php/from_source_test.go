package php

import (
	"maps"
	"reflect"
	"slices"
	"testing"
)

const userSource = `<?php
namespace App\Models;

use App\Contracts\Jsonable;
use Illuminate\Support\Collection as Coll, Foo\Bar;
use App\{Alpha, Beta as B};

/**
 * A user.
 */
abstract class User extends Model implements Jsonable, \Countable
{
    const TABLE = 'users';
    private const SECRET = "x";
    public static $count = 0;
    protected ?string $email = null, $name;
    var $legacy;

    /** Builds a user. */
    public function __construct(private Mailer $mailer, string $name = 'anon') {
        $this->name = $name;
        if ($x) { }
    }

    abstract protected function table(): string;

    public static function find(int ...$ids): ?static
    {
        return new static();
    }

    function &refs(array &$items, $opts = [1, 2]) {}
}

function helper($a, $b = null) {
    return function () use ($a) { return $a; };
}
`

func indexOne(t *testing.T, path, src string) (*SymbolTable, *FileRecord) {
	t.Helper()
	table := NewSymbolTable()
	file := table.IndexSource(path, []byte(src))
	if file == nil {
		t.Fatalf("IndexSource(%q) = nil", path)
	}
	return table, file
}

func TestParseDeclarationsFile(t *testing.T) {
	table, file := indexOne(t, "src/User.php", userSource)

	if file.Namespace != `App\Models` {
		t.Errorf("Namespace = %q, want %q", file.Namespace, `App\Models`)
	}
	wantUses := map[string]string{
		"Jsonable": `App\Contracts\Jsonable`,
		"Coll":     `Illuminate\Support\Collection`,
		"Bar":      `Foo\Bar`,
		"Alpha":    `App\Alpha`,
		"B":        `App\Beta`,
	}
	if !maps.Equal(file.Uses, wantUses) {
		t.Errorf("Uses = %v, want %v", file.Uses, wantUses)
	}

	if got, want := table.Namespaces(), []string{`App\Models`}; !slices.Equal(got, want) {
		t.Errorf("Namespaces() = %v, want %v", got, want)
	}
	if got, want := table.NamespaceMembers(`App\Models`), []string{`App\Models\User`, `App\Models\helper`}; !slices.Equal(got, want) {
		t.Errorf("NamespaceMembers() = %v, want %v", got, want)
	}
	if got, want := table.Stats(), (Stats{Files: 1, Classes: 1, Functions: 1, Namespaces: 1}); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestParseDeclarationsClass(t *testing.T) {
	table, file := indexOne(t, "src/User.php", userSource)

	user := table.Class(`App\Models\User`)
	if user == nil {
		t.Fatal("class App\\Models\\User not indexed")
	}
	if file.Classes["User"] != user {
		t.Errorf("file.Classes[User] = %p, want %p", file.Classes["User"], user)
	}
	if user.Name != "User" {
		t.Errorf("Name = %q, want %q", user.Name, "User")
	}
	if user.Kind != ClassKindClass {
		t.Errorf("Kind = %q, want %q", user.Kind, ClassKindClass)
	}
	if user.Modifiers != ModAbstract {
		t.Errorf("Modifiers = %v, want %v", user.Modifiers, ModAbstract)
	}
	if want := []string{"Model"}; !slices.Equal(user.Extends, want) {
		t.Errorf("Extends = %v, want %v", user.Extends, want)
	}
	if want := []string{"Jsonable", `\Countable`}; !slices.Equal(user.Implements, want) {
		t.Errorf("Implements = %v, want %v", user.Implements, want)
	}
	if user.File != "src/User.php" || user.Line != 11 {
		t.Errorf("location = %s:%d, want src/User.php:11", user.File, user.Line)
	}
	if user.Doc == nil || user.Doc.Summary != "A user." {
		t.Errorf("Doc = %+v, want summary %q", user.Doc, "A user.")
	}
	if user.State != Unresolved {
		t.Errorf("State = %v, want %v", user.State, Unresolved)
	}

	t.Run("constants", func(t *testing.T) {
		if len(user.Constants) != 2 {
			t.Fatalf("len(Constants) = %d, want 2", len(user.Constants))
		}
		tests := []struct {
			name, value string
			mods        Modifiers
		}{
			{"TABLE", "'users'", ModPublic | ModConst},
			{"SECRET", `"x"`, ModPrivate | ModConst},
		}
		for _, tt := range tests {
			k := user.Constants[tt.name]
			if k == nil {
				t.Errorf("constant %s missing", tt.name)
				continue
			}
			if k.Value != tt.value || k.Modifiers != tt.mods {
				t.Errorf("%s = %q %v, want %q %v", tt.name, k.Value, k.Modifiers, tt.value, tt.mods)
			}
		}
	})

	t.Run("properties", func(t *testing.T) {
		if len(user.Properties) != 5 {
			t.Errorf("len(Properties) = %d, want 5", len(user.Properties))
		}
		tests := []struct {
			name, typ, value string
			mods             Modifiers
		}{
			{"count", "", "0", ModPublic | ModStatic},
			{"email", "?string", "null", ModProtected},
			{"name", "", "", ModProtected},
			{"legacy", "", "", ModPublic},
			{"mailer", "Mailer", "", ModPrivate},
		}
		for _, tt := range tests {
			p := user.Properties[tt.name]
			if p == nil {
				t.Errorf("property %s missing", tt.name)
				continue
			}
			if p.Type != tt.typ || p.Value != tt.value || p.Modifiers != tt.mods {
				t.Errorf("%s = (%q, %q, %v), want (%q, %q, %v)",
					tt.name, p.Type, p.Value, p.Modifiers, tt.typ, tt.value, tt.mods)
			}
		}
	})

	t.Run("methods", func(t *testing.T) {
		if len(user.Methods) != 4 {
			t.Errorf("len(Methods) = %d, want 4", len(user.Methods))
		}

		ctor := user.Methods["__construct"]
		if ctor == nil {
			t.Fatal("__construct missing")
		}
		if user.Constructor() != ctor {
			t.Errorf("Constructor() = %p, want %p", user.Constructor(), ctor)
		}
		if ctor.Modifiers != ModPublic {
			t.Errorf("__construct Modifiers = %v, want %v", ctor.Modifiers, ModPublic)
		}
		if ctor.Class != `App\Models\User` {
			t.Errorf("__construct Class = %q, want %q", ctor.Class, `App\Models\User`)
		}
		wantParams := []Parameter{
			{Name: "mailer", Type: "Mailer"},
			{Name: "name", Type: "string", Default: "'anon'"},
		}
		if !reflect.DeepEqual(ctor.Parameters, wantParams) {
			t.Errorf("__construct Parameters = %+v, want %+v", ctor.Parameters, wantParams)
		}
		if ctor.Doc == nil || ctor.Doc.Summary != "Builds a user." {
			t.Errorf("__construct Doc = %+v, want summary %q", ctor.Doc, "Builds a user.")
		}

		table := user.Methods["table"]
		if table == nil {
			t.Fatal("table missing")
		}
		if table.Modifiers != ModProtected|ModAbstract {
			t.Errorf("table Modifiers = %v, want %v", table.Modifiers, ModProtected|ModAbstract)
		}
		if table.ReturnType != "string" {
			t.Errorf("table ReturnType = %q, want %q", table.ReturnType, "string")
		}
		if len(table.Parameters) != 0 {
			t.Errorf("table Parameters = %+v, want none", table.Parameters)
		}
		if table.Doc != nil {
			t.Errorf("table Doc = %+v, want nil", table.Doc)
		}

		find := user.Methods["find"]
		if find == nil {
			t.Fatal("find missing")
		}
		if find.Modifiers != ModPublic|ModStatic {
			t.Errorf("find Modifiers = %v, want %v", find.Modifiers, ModPublic|ModStatic)
		}
		if want := []Parameter{{Name: "ids", Type: "int", IsVariadic: true}}; !reflect.DeepEqual(find.Parameters, want) {
			t.Errorf("find Parameters = %+v, want %+v", find.Parameters, want)
		}
		if got, want := find.Signature(), "find(int ...$ids): ?static"; got != want {
			t.Errorf("Signature() = %q, want %q", got, want)
		}

		refs := user.Methods["refs"]
		if refs == nil {
			t.Fatal("refs missing")
		}
		if refs.Modifiers != ModPublic {
			t.Errorf("refs Modifiers = %v, want %v", refs.Modifiers, ModPublic)
		}
		wantRefs := []Parameter{
			{Name: "items", Type: "array", IsReference: true},
			{Name: "opts", Default: "[1, 2]"},
		}
		if !reflect.DeepEqual(refs.Parameters, wantRefs) {
			t.Errorf("refs Parameters = %+v, want %+v", refs.Parameters, wantRefs)
		}
		if got, want := refs.CallSnippet(), "refs($items, $opts)"; got != want {
			t.Errorf("CallSnippet() = %q, want %q", got, want)
		}
	})
}

func TestParseDeclarationsFreeFunction(t *testing.T) {
	table, file := indexOne(t, "src/User.php", userSource)

	helper := table.Function(`App\Models\helper`)
	if helper == nil {
		t.Fatal("function App\\Models\\helper not indexed")
	}
	if file.Functions[`App\Models\helper`] != helper {
		t.Errorf("file.Functions entry = %p, want %p", file.Functions[`App\Models\helper`], helper)
	}
	if helper.Namespace != `App\Models` {
		t.Errorf("Namespace = %q, want %q", helper.Namespace, `App\Models`)
	}
	if helper.Class != "" {
		t.Errorf("Class = %q, want empty", helper.Class)
	}
	if want := []Parameter{{Name: "a"}, {Name: "b", Default: "null"}}; !reflect.DeepEqual(helper.Parameters, want) {
		t.Errorf("Parameters = %+v, want %+v", helper.Parameters, want)
	}
	if n := len(table.Functions()); n != 1 {
		t.Errorf("len(Functions()) = %d, want 1; closures are not declarations", n)
	}
}

func TestParseDeclarationsSkipsNonDeclarations(t *testing.T) {
	src := `<?php
$name = Foo::class;
$handler = new class {
    public function handle() {}
};
$f = static function ($x) use ($name) {
    return $x;
};
enum Suit: string {
    case Hearts = 'H';
    public function label(): string { return 'x'; }
}
function real() {}
`
	table, _ := indexOne(t, "a.php", src)

	if classes := table.Classes(); len(classes) != 0 {
		t.Errorf("len(Classes()) = %d, want 0", len(classes))
	}
	functions := table.Functions()
	if len(functions) != 1 || functions[0].Name != "real" {
		t.Errorf("Functions() has %d entries, want only real", len(functions))
	}
}

func TestParseDeclarationsNestedBodies(t *testing.T) {
	src := `<?php
class Outer {
    public function run() {
        $x = function () { return new class { public $inner; }; };
        if (true) { $y = ['a' => ['b']]; }
    }
    public $after;
    public function later() {}
}
class Next {}
`
	table, _ := indexOne(t, "a.php", src)

	outer := table.Class("Outer")
	if outer == nil {
		t.Fatal("class Outer not indexed")
	}
	if _, ok := outer.Properties["after"]; !ok {
		t.Error("property after missing")
	}
	if _, ok := outer.Properties["inner"]; ok {
		t.Error("property inner of the anonymous class leaked into Outer")
	}
	if _, ok := outer.Methods["later"]; !ok {
		t.Error("method later missing")
	}
	if table.Class("Next") == nil {
		t.Error("class Next not indexed")
	}
}

func TestParseDeclarationsInterfacesAndTraits(t *testing.T) {
	src := `<?php
namespace Lib;

interface Readable extends Countable, \Traversable {
    public function read(int $n): string;
}

trait Greets {
    use Loud, Polite { Loud::hello insteadof Polite; }
    private function greet() {}
}

final class Reader implements Readable {
    use Greets;
    public function read(int $n): string { return ''; }
}
`
	table, _ := indexOne(t, "lib.php", src)

	readable := table.Class(`Lib\Readable`)
	if readable == nil {
		t.Fatal("interface Lib\\Readable not indexed")
	}
	if readable.Kind != ClassKindInterface {
		t.Errorf("Readable Kind = %q, want %q", readable.Kind, ClassKindInterface)
	}
	if want := []string{"Countable", `\Traversable`}; !slices.Equal(readable.Extends, want) {
		t.Errorf("Readable Extends = %v, want %v", readable.Extends, want)
	}
	if _, ok := readable.Methods["read"]; !ok {
		t.Error("Readable method read missing")
	}

	greets := table.Class(`Lib\Greets`)
	if greets == nil {
		t.Fatal("trait Lib\\Greets not indexed")
	}
	if greets.Kind != ClassKindTrait {
		t.Errorf("Greets Kind = %q, want %q", greets.Kind, ClassKindTrait)
	}
	if want := []string{"Loud", "Polite"}; !slices.Equal(greets.Traits, want) {
		t.Errorf("Greets Traits = %v, want %v", greets.Traits, want)
	}
	if _, ok := greets.Methods["greet"]; !ok {
		t.Error("Greets method greet missing")
	}

	reader := table.Class(`Lib\Reader`)
	if reader == nil {
		t.Fatal("class Lib\\Reader not indexed")
	}
	if reader.Modifiers != ModFinal {
		t.Errorf("Reader Modifiers = %v, want %v", reader.Modifiers, ModFinal)
	}
	if want := []string{"Greets"}; !slices.Equal(reader.Traits, want) {
		t.Errorf("Reader Traits = %v, want %v", reader.Traits, want)
	}
}

func TestParseDeclarationsClosureUseIsNotImport(t *testing.T) {
	src := `<?php
use function App\helper;
use const App\LIMIT;
$f = function () use ($x) {};
`
	_, file := indexOne(t, "a.php", src)
	want := map[string]string{"helper": `App\helper`, "LIMIT": `App\LIMIT`}
	if !maps.Equal(file.Uses, want) {
		t.Errorf("Uses = %v, want %v", file.Uses, want)
	}
}

func TestParseDeclarationsLastDeclarationWins(t *testing.T) {
	src := `<?php
class Dup { public function one() {} }
class Dup { public function two() {} public function two($x) {} }
`
	table, _ := indexOne(t, "a.php", src)

	dup := table.Class("Dup")
	if dup == nil {
		t.Fatal("class Dup not indexed")
	}
	if _, ok := dup.Methods["one"]; ok {
		t.Error("method one from the first declaration survived")
	}
	two := dup.Methods["two"]
	if two == nil {
		t.Fatal("method two missing")
	}
	if len(two.Parameters) != 1 {
		t.Errorf("len(two.Parameters) = %d, want 1", len(two.Parameters))
	}
}

func TestParseDeclarationsDanglingDocComment(t *testing.T) {
	src := `<?php
class A {
    public function run() {}
    /** Left over at the end of the body. */
}
class B {}
function after() {}
`
	table, _ := indexOne(t, "a.php", src)

	b := table.Class("B")
	if b == nil {
		t.Fatal("class B not indexed")
	}
	if b.Doc != nil {
		t.Errorf("B.Doc = %+v, want nil", b.Doc)
	}
	fn := table.Function("after")
	if fn == nil {
		t.Fatal("function after not indexed")
	}
	if fn.Doc != nil {
		t.Errorf("after.Doc = %+v, want nil", fn.Doc)
	}
}

func TestParseDeclarationsMalformedInput(t *testing.T) {
	inputs := []string{
		"<?php class",
		"<?php class Foo extends",
		"<?php class Foo { public",
		"<?php class Foo { public function",
		"<?php class Foo { public function bar(",
		"<?php class Foo { const = ; public $ }",
		"<?php namespace",
		"<?php use",
		"<?php function (",
		"<?php abstract final static",
		"}}}{{{",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("IndexSource(%q) panicked: %v", input, r)
				}
			}()
			table := NewSymbolTable()
			table.IndexSource("bad.php", []byte(input))
		})
	}
}

func TestClassAt(t *testing.T) {
	src := `<?php
class First {
    public function a() {}
}

class Second {
    public function b() {}
}
`
	_, file := indexOne(t, "a.php", src)

	if c := file.ClassAt(1); c != nil {
		t.Errorf("ClassAt(1) = %s, want nil", c.Name)
	}
	tests := []struct {
		line int
		want string
	}{
		{3, "First"},
		{6, "Second"},
		{100, "Second"},
	}
	for _, tt := range tests {
		c := file.ClassAt(tt.line)
		if c == nil || c.Name != tt.want {
			t.Errorf("ClassAt(%d) = %v, want %s", tt.line, c, tt.want)
		}
	}
}
