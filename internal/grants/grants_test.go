package grants

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/charterhq/charter/internal/contract"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "local:write", want: "local:write"},
		{in: "  net:fetch  ", want: "net:fetch"},
		{in: "nocolon", wantErr: true},
		{in: ":perm", wantErr: true},
		{in: "ns:", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) should fail", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMissing(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		approved []string
		want     []string
	}{
		{
			name:     "one missing",
			required: []string{"a:x", "b:y"},
			approved: []string{"a:x"},
			want:     []string{"b:y"},
		},
		{
			name:     "all approved",
			required: []string{"a:x"},
			approved: []string{"a:x", "extra:grant"},
			want:     nil,
		},
		{
			name:     "order preserved over required",
			required: []string{"c:z", "a:x", "b:y"},
			approved: []string{"a:x"},
			want:     []string{"c:z", "b:y"},
		},
		{
			name:     "nothing required",
			required: nil,
			approved: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contract.New("t")
			c.ControlsRequired = tt.required
			c.ControlsApproved = tt.approved

			if got := Missing(c); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Missing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApproveSkipsDuplicates(t *testing.T) {
	c := contract.New("t")
	c.ControlsApproved = []string{"a:x"}

	added := Approve(c, []string{"a:x", "b:y", "b:y"})

	if !reflect.DeepEqual(added, []string{"b:y"}) {
		t.Errorf("added = %v, want [b:y]", added)
	}
	if !reflect.DeepEqual(c.ControlsApproved, []string{"a:x", "b:y"}) {
		t.Errorf("ControlsApproved = %v", c.ControlsApproved)
	}
}

func countControlsEntries(c *contract.Contract) int {
	n := 0
	for _, entry := range c.History {
		if entry.Label == contract.ControlsLabel {
			n++
		}
	}
	return n
}

func TestEnforceBlocksAndRecordsOnce(t *testing.T) {
	store := contract.NewMemStore()
	gate := NewGate(contract.NewEngine(store))

	c := contract.New("t")
	c.ControlsRequired = []string{"a:x", "b:y"}
	c.ControlsApproved = []string{"a:x"}

	err := gate.Enforce(c, "run", true)

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("error = %v, want *BlockedError", err)
	}
	if !reflect.DeepEqual(blocked.Missing, []string{"b:y"}) {
		t.Errorf("Missing = %v, want [b:y]", blocked.Missing)
	}

	if got := countControlsEntries(c); got != 1 {
		t.Errorf("CONTROLS entries = %d, want exactly 1", got)
	}
	last := c.History[len(c.History)-1]
	if !strings.Contains(last.Message, "b:y") || !strings.Contains(last.Message, "remediation") {
		t.Errorf("block entry should name missing grants and remediation: %q", last.Message)
	}

	// The block itself must be durable even though the command fails
	persisted, loadErr := store.Load(c.ID)
	if loadErr != nil {
		t.Fatalf("Load() error = %v", loadErr)
	}
	if countControlsEntries(persisted) != 1 {
		t.Error("CONTROLS entry not persisted")
	}
}

func TestEnforcePassStillRecords(t *testing.T) {
	gate := NewGate(contract.NewEngine(contract.NewMemStore()))

	c := contract.New("t")
	c.ControlsRequired = []string{"a:x"}
	c.ControlsApproved = []string{"a:x", "extra:grant"}

	if err := gate.Enforce(c, "approve", false); err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}

	if got := countControlsEntries(c); got != 1 {
		t.Fatalf("CONTROLS entries = %d, want 1", got)
	}
	msg := c.History[len(c.History)-1].Message
	if !strings.Contains(msg, "a:x") || !strings.Contains(msg, "extra:grant") {
		t.Errorf("pass entry should list required and approved grants: %q", msg)
	}
}
