package fastimport

import "testing"

func TestParseIdent(t *testing.T) {
	tests := []struct {
		in        string
		name      string
		email     string
		wantError bool
	}{
		{in: "Levitation <levitation@scytale.name>", name: "Levitation", email: "levitation@scytale.name"},
		{in: "  Spaced Out   <a@b>  ", name: "Spaced Out", email: "a@b"},
		{in: "NoEmail", wantError: true},
		{in: "<only@email>", wantError: true},
		{in: "Name <>", wantError: true},
		{in: "Name <a@b> trailing", wantError: true},
		{in: "", wantError: true},
	}
	for _, tt := range tests {
		id, err := ParseIdent(tt.in)
		if tt.wantError {
			if err == nil {
				t.Errorf("ParseIdent(%q) accepted, got %+v", tt.in, id)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseIdent(%q): %v", tt.in, err)
			continue
		}
		if id.Name != tt.name || id.Email != tt.email {
			t.Errorf("ParseIdent(%q) = %q <%q>, want %q <%q>", tt.in, id.Name, id.Email, tt.name, tt.email)
		}
	}
}
