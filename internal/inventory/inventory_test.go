package inventory

import (
	"testing"

	"github.com/google/uuid"
)

func TestMemory_GrantRemove(t *testing.T) {
	m := NewMemory(0)
	actor := uuid.New()

	m.Grant(actor, "STONE", 10)
	if !m.HasQuantity(actor, "STONE", 10) {
		t.Error("missing granted stone")
	}
	if m.HasQuantity(actor, "STONE", 11) {
		t.Error("HasQuantity over-reports")
	}

	m.Remove(actor, "STONE", 4)
	if !m.HasQuantity(actor, "STONE", 6) || m.HasQuantity(actor, "STONE", 7) {
		t.Error("remove did not leave exactly 6")
	}

	m.Remove(actor, "STONE", 6)
	if len(m.Stacks(actor)) != 0 {
		t.Errorf("emptied kind still listed: %v", m.Stacks(actor))
	}
}

func TestMemory_Capacity(t *testing.T) {
	m := NewMemory(64)
	actor := uuid.New()

	if !m.HasCapacity(actor, "STONE", 64) {
		t.Error("empty holder should fit 64")
	}
	m.Grant(actor, "STONE", 60)
	if m.HasCapacity(actor, "STONE", 5) {
		t.Error("capacity check should refuse 60+5 > 64")
	}
	if !m.HasCapacity(actor, "STONE", 4) {
		t.Error("capacity check should allow 60+4 = 64")
	}
	// Other kinds have their own bound.
	if !m.HasCapacity(actor, "BREAD", 64) {
		t.Error("capacity should be per kind")
	}
}

func TestMemory_StacksSorted(t *testing.T) {
	m := NewMemory(0)
	actor := uuid.New()
	m.Grant(actor, "STONE", 2)
	m.Grant(actor, "BREAD", 1)
	m.Grant(actor, "IRON_INGOT", 3)

	stacks := m.Stacks(actor)
	want := []Stack{{"BREAD", 1}, {"IRON_INGOT", 3}, {"STONE", 2}}
	if len(stacks) != len(want) {
		t.Fatalf("stacks = %v, want %v", stacks, want)
	}
	for i := range want {
		if stacks[i] != want[i] {
			t.Errorf("stacks[%d] = %v, want %v", i, stacks[i], want[i])
		}
	}
}
