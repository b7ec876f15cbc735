package ast

import "testing"

func TestContainerText(t *testing.T) {
	c := NewContainer(NewText("a"), NewText("b"), NewContainer(NewText("c")))
	if got, want := c.Text(), "abc"; got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
}

func TestTextPredicates(t *testing.T) {
	tx := NewText("hi")
	if !tx.IsTextNode() || !tx.IsRaw() {
		t.Fatal("Text should be both a text node and raw")
	}
	if tx.IsContainer() {
		t.Fatal("Text should not be a container")
	}
}

func TestContainerAppend(t *testing.T) {
	c := NewContainer()
	c.Append(NewText("x"))
	c.Append(NewText("y"))
	if got, want := len(c.Children()), 2; got != want {
		t.Fatalf("len(Children()) = %d, want %d", got, want)
	}
	if got, want := c.Text(), "xy"; got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
}

func TestLinebreak(t *testing.T) {
	lb := &Linebreak{}
	if !lb.IsLinebreakNode() {
		t.Fatal("Linebreak.IsLinebreakNode() should be true")
	}
	if lb.IsTextNode() {
		t.Fatal("Linebreak should not be a text node")
	}
	if lb.Text() != "" {
		t.Fatal("Linebreak.Text() should be empty")
	}
}
