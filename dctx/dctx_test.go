package dctx

import (
	"log"
	"testing"
)

type fakeMachine struct{}

func (fakeMachine) EscapeCharacter() rune { return '\\' }
func (fakeMachine) RestrictiveMode() bool { return false }
func (fakeMachine) BeginSuffix() string   { return "_begin" }
func (fakeMachine) EndSuffix() string     { return "_end" }
func (fakeMachine) Logger() *log.Logger   { return nil }

func TestNewCarriesMachineAndEscapeSetting(t *testing.T) {
	m := fakeMachine{}
	ctx := New(m, true)
	if ctx.Machine != Machine(m) {
		t.Fatal("New should store the given machine verbatim")
	}
	if !ctx.EscapeEnabled {
		t.Fatal("New(m, true) should set EscapeEnabled")
	}
	ctx2 := New(m, false)
	if ctx2.EscapeEnabled {
		t.Fatal("New(m, false) should leave EscapeEnabled false")
	}
}
