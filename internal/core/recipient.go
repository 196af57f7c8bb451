package core

import "fmt"

const (
	RecipientFamily   RecipientKind = "family"
	RecipientMember   RecipientKind = "member"
	RecipientExternal RecipientKind = "external"
)

type (
	// RecipientKind discriminates the recipient union.
	RecipientKind string

	// Recipient identifies who a ledger entry is for: the whole household,
	// a single member, or someone outside the household.
	Recipient struct {
		Kind     RecipientKind
		MemberID int64 // set only for RecipientMember
	}
)

func FamilyRecipient() Recipient {
	return Recipient{Kind: RecipientFamily}
}

func MemberRecipient(memberID int64) Recipient {
	return Recipient{Kind: RecipientMember, MemberID: memberID}
}

func ExternalRecipient() Recipient {
	return Recipient{Kind: RecipientExternal}
}

// RecipientForOwners applies the account-ownership rule: an account with a
// single owner points at that member, anything else is a family matter.
func RecipientForOwners(owners []int64) Recipient {
	if len(owners) == 1 {
		return MemberRecipient(owners[0])
	}
	return FamilyRecipient()
}

func (r Recipient) Valid() bool {
	switch r.Kind {
	case RecipientFamily, RecipientExternal:
		return r.MemberID == 0
	case RecipientMember:
		return r.MemberID > 0
	}
	return false
}

func (r Recipient) String() string {
	if r.Kind == RecipientMember {
		return fmt.Sprintf("member:%d", r.MemberID)
	}
	return string(r.Kind)
}
