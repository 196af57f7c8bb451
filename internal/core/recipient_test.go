package core

import "testing"

func TestRecipientForOwners(t *testing.T) {
	tests := []struct {
		name   string
		owners []int64
		want   Recipient
	}{
		{"single owner", []int64{7}, MemberRecipient(7)},
		{"joint account", []int64{1, 2}, FamilyRecipient()},
		{"no owners", nil, FamilyRecipient()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecipientForOwners(tt.owners); got != tt.want {
				t.Errorf("RecipientForOwners(%v) = %+v, want %+v", tt.owners, got, tt.want)
			}
		})
	}
}

func TestRecipientValid(t *testing.T) {
	tests := []struct {
		name string
		r    Recipient
		want bool
	}{
		{"family", FamilyRecipient(), true},
		{"member", MemberRecipient(3), true},
		{"external", ExternalRecipient(), true},
		{"member without id", Recipient{Kind: RecipientMember}, false},
		{"family with member id", Recipient{Kind: RecipientFamily, MemberID: 2}, false},
		{"unknown kind", Recipient{Kind: "bank"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecipientString(t *testing.T) {
	if got := MemberRecipient(5).String(); got != "member:5" {
		t.Errorf("member String() = %q, want member:5", got)
	}
	if got := FamilyRecipient().String(); got != "family" {
		t.Errorf("family String() = %q, want family", got)
	}
	if got := ExternalRecipient().String(); got != "external" {
		t.Errorf("external String() = %q, want external", got)
	}
}
