package peers

import "testing"

func TestNodeAddressRoles(t *testing.T) {
	tests := []struct {
		addr        NodeAddress
		coordinator bool
		gate        bool
		role        Role
		name        string
	}{
		{Coordinator, true, false, CoordinatorRole, "coordinator"},
		{Start, false, true, GateRole, "start"},
		{Finish, false, true, GateRole, "finish"},
		{NodeAddress(2), false, false, Unassigned, "2"},
		{NodeAddress(255), false, false, Unassigned, "255"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.addr.IsCoordinator(); got != tt.coordinator {
				t.Errorf("IsCoordinator() = %v, want %v", got, tt.coordinator)
			}
			if got := tt.addr.IsGate(); got != tt.gate {
				t.Errorf("IsGate() = %v, want %v", got, tt.gate)
			}
			if got := tt.addr.Role(); got != tt.role {
				t.Errorf("Role() = %v, want %v", got, tt.role)
			}
			if got := tt.addr.String(); got != tt.name {
				t.Errorf("String() = %v, want %v", got, tt.name)
			}
		})
	}
}

func TestParseNodeAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    NodeAddress
		wantErr bool
	}{
		{"coordinator", Coordinator, false},
		{"START", Start, false},
		{" finish ", Finish, false},
		{"0", Coordinator, false},
		{"32", Finish, false},
		{"7", NodeAddress(7), false},
		{"256", 0, true},
		{"-1", 0, true},
		{"gate", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNodeAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNodeAddress(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("ParseNodeAddress(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
