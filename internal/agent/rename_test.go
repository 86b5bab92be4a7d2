package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNameAlreadyExists(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t)
	mustAdd(t, reg, registerBody("foo", mac1, "10.0.0.1", ""))

	tests := []struct {
		name string
		mac  string
		want bool
	}{
		{"foo", mac2, true},
		{"foo", mac1, false},
		{"bar", mac2, false},
		{"Foo", mac2, false},
	}

	for _, tt := range tests {
		if got := reg.NameAlreadyExists(tt.name, tt.mac); got != tt.want {
			t.Errorf("NameAlreadyExists(%q, %q) = %v, want %v", tt.name, tt.mac, got, tt.want)
		}
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in        string
		wantAlpha string
		wantDigit int
	}{
		{"foo", "foo", 0},
		{"foo_3", "foo", 3},
		{"foo_3x", "foo", 3},
		{"foo_x", "foo", 0},
		{"foo_", "foo", 0},
		{"_foo", "foo", 0},
		{"a_2_c", "a", 2},
		{"___", "___", 0},
		{"foo_12345678901234", "foo", 123456789},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			alpha, digit := splitName(tt.in)
			if alpha != tt.wantAlpha || digit != tt.wantDigit {
				t.Errorf("splitName(%q) = (%q, %d), want (%q, %d)", tt.in, alpha, digit, tt.wantAlpha, tt.wantDigit)
			}
		})
	}
}

func TestRenamePending_ResolvesCollisions(t *testing.T) {
	reg, prober, _, observer := newTestRegistry(t)
	ctx := context.Background()

	mustAdd(t, reg, registerBody("foo", mac1, "10.0.0.1", ""))
	mustAdd(t, reg, registerBody("foo", mac2, "10.0.0.2", ""))

	if n := reg.RenamePending(ctx); n != 1 {
		t.Fatalf("RenamePending() = %d, want 1", n)
	}
	second, _ := reg.Get(mac2)
	if second.Name != "foo_1" || second.ToRename {
		t.Errorf("second agent = %q (ToRename=%v), want foo_1", second.Name, second.ToRename)
	}
	if prober.renamed[mac2] != "foo_1" {
		t.Errorf("device was told %q, want foo_1", prober.renamed[mac2])
	}

	mustAdd(t, reg, registerBody("foo", mac3, "10.0.0.3", ""))
	if n := reg.RenamePending(ctx); n != 1 {
		t.Fatalf("RenamePending() = %d, want 1", n)
	}
	third, _ := reg.Get(mac3)
	if third.Name != "foo_2" {
		t.Errorf("third agent = %q, want foo_2", third.Name)
	}

	first, _ := reg.Get(mac1)
	if first.Name != "foo" {
		t.Errorf("first agent renamed to %q", first.Name)
	}

	if strings.Join(observer.renamed, ",") != "foo->foo_1,foo->foo_2" {
		t.Errorf("observer.renamed = %v", observer.renamed)
	}
	if n := reg.RenamePending(ctx); n != 0 {
		t.Errorf("RenamePending() = %d with nothing flagged, want 0", n)
	}
}

func TestRenameOne_IncrementsExistingSuffix(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t)
	mustAdd(t, reg, registerBody("lamp_4", mac1, "10.0.0.1", ""))
	mustAdd(t, reg, registerBody("lamp_4", mac2, "10.0.0.2", ""))

	if err := reg.RenameOne(context.Background(), mac2); err != nil {
		t.Fatalf("RenameOne() error = %v", err)
	}
	a, _ := reg.Get(mac2)
	if a.Name != "lamp_5" {
		t.Errorf("Name = %q, want lamp_5", a.Name)
	}
}

func TestRenameOne_Exhausted(t *testing.T) {
	reg, prober, _, _ := newTestRegistry(t)
	long := strings.Repeat("x", NameMaxLength)
	mustAdd(t, reg, registerBody(long, mac1, "10.0.0.1", ""))
	mustAdd(t, reg, registerBody(long, mac2, "10.0.0.2", ""))

	err := reg.RenameOne(context.Background(), mac2)
	if !errors.Is(err, ErrRenameExhausted) {
		t.Fatalf("RenameOne() error = %v, want ErrRenameExhausted", err)
	}

	a, _ := reg.Get(mac2)
	if a.Name != long || !a.ToRename {
		t.Errorf("agent changed after failed rename: %q ToRename=%v", a.Name, a.ToRename)
	}
	if len(prober.renamed) != 0 {
		t.Error("device should not be contacted when no name is free")
	}
}

func TestRenameOne_ProberFailureKeepsFlag(t *testing.T) {
	reg, prober, _, _ := newTestRegistry(t)
	mustAdd(t, reg, registerBody("foo", mac1, "10.0.0.1", ""))
	mustAdd(t, reg, registerBody("foo", mac2, "10.0.0.2", ""))
	prober.renameErr = errUnreachable

	err := reg.RenameOne(context.Background(), mac2)
	if !errors.Is(err, ErrProbeFailed) || !errors.Is(err, errUnreachable) {
		t.Fatalf("RenameOne() error = %v, want ErrProbeFailed wrapping the cause", err)
	}

	a, _ := reg.Get(mac2)
	if a.Name != "foo" || !a.ToRename {
		t.Errorf("agent = %q ToRename=%v, want unchanged", a.Name, a.ToRename)
	}
	if n := reg.RenamePending(context.Background()); n != 0 {
		t.Errorf("RenamePending() = %d, want 0 while the device is unreachable", n)
	}

	prober.renameErr = nil
	if n := reg.RenamePending(context.Background()); n != 1 {
		t.Errorf("RenamePending() = %d, want 1 once the device answers", n)
	}
}

func TestRenamePending_DropsStaleFlag(t *testing.T) {
	reg, prober, _, _ := newTestRegistry(t)
	mustAdd(t, reg, registerBody("foo", mac1, "10.0.0.1", ""))
	mustAdd(t, reg, registerBody("foo", mac2, "10.0.0.2", ""))
	mustAdd(t, reg, registerBody("bar", mac2, "10.0.0.2", ""))

	if n := reg.RenamePending(context.Background()); n != 0 {
		t.Errorf("RenamePending() = %d, want 0", n)
	}
	a, _ := reg.Get(mac2)
	if a.Name != "bar" || a.ToRename {
		t.Errorf("agent = %q ToRename=%v, want bar without flag", a.Name, a.ToRename)
	}
	if len(prober.renamed) != 0 {
		t.Errorf("device was told to rename: %v", prober.renamed)
	}
}

func TestRenamePending_CrossFlaggedKeepsOneName(t *testing.T) {
	reg, prober, _, _ := newTestRegistry(t)
	mustAdd(t, reg, registerBody("foo", mac1, "10.0.0.1", ""))
	mustAdd(t, reg, registerBody("foo", mac2, "10.0.0.2", ""))
	mustAdd(t, reg, registerBody("foo", mac1, "10.0.0.1", ""))

	first, _ := reg.Get(mac1)
	second, _ := reg.Get(mac2)
	if !first.ToRename || !second.ToRename {
		t.Fatalf("want both agents flagged, got %v and %v", first.ToRename, second.ToRename)
	}

	if n := reg.RenamePending(context.Background()); n != 1 {
		t.Fatalf("RenamePending() = %d, want 1", n)
	}

	first, _ = reg.Get(mac1)
	second, _ = reg.Get(mac2)
	if first.Name != "foo_1" || first.ToRename {
		t.Errorf("first agent = %q ToRename=%v, want foo_1", first.Name, first.ToRename)
	}
	if second.Name != "foo" || second.ToRename {
		t.Errorf("second agent = %q ToRename=%v, want foo kept", second.Name, second.ToRename)
	}
	if len(prober.renamed) != 1 {
		t.Errorf("device renames = %v, want exactly one", prober.renamed)
	}
}

func TestRenameOne_UnknownAgent(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t)

	if err := reg.RenameOne(context.Background(), mac1); !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("RenameOne() error = %v, want ErrAgentNotFound", err)
	}
}
