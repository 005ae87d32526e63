package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"familycard/internal/models"
	"familycard/internal/scheme"
	"familycard/internal/store"
	"familycard/internal/utils"
)

var ErrNotFound = errors.New("record not found")

const (
	familiesTable = "families"
	membersTable  = "family_members"
)

// FamilyService translates family and member operations into calls
// against the external store, applying the scheme policy and card
// issuance on creation. Ownership is checked on every mutation: a row
// the caller does not own behaves as if it did not exist.
type FamilyService struct {
	store store.Client
	email *EmailService
}

// NewFamilyService creates a new family service. email may be nil.
func NewFamilyService(st store.Client, email *EmailService) *FamilyService {
	return &FamilyService{store: st, email: email}
}

// CreateFamily assigns a scheme tier from the declared income, issues a
// card number and persists the family followed by its members. The
// member insert only runs when the family insert succeeded; if it then
// fails, the family row is deleted again so a creation never half
// succeeds.
func (s *FamilyService) CreateFamily(ctx context.Context, user *AuthUser, familyName, address string, annualIncome int, members []models.NewMember, requestedTier string) (*models.Family, []models.Member, error) {
	if err := utils.ValidateFamilyName(familyName); err != nil {
		return nil, nil, err
	}
	if err := utils.ValidateIncome(annualIncome); err != nil {
		return nil, nil, err
	}

	assignment := scheme.Assign(annualIncome, requestedTier)
	cardNumber := scheme.NewCardNumber()

	familyRow := map[string]any{
		"user_id":       user.ID,
		"family_name":   familyName,
		"address":       address,
		"annual_income": annualIncome,
		"scheme_type":   string(assignment.Tier),
		"fee":           assignment.Fee,
		"discount":      assignment.DiscountPercent,
		"card_number":   cardNumber,
	}

	data, err := s.store.Insert(ctx, familiesTable, []map[string]any{familyRow})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create family: %w", err)
	}

	var created []models.Family
	if err := json.Unmarshal(data, &created); err != nil || len(created) == 0 {
		return nil, nil, errors.New("family insert returned no data")
	}
	family := created[0]

	var insertedMembers []models.Member
	if len(members) > 0 {
		rows := make([]map[string]any, 0, len(members))
		for _, m := range members {
			rows = append(rows, map[string]any{
				"family_id": family.ID,
				"name":      m.Name,
				"relation":  m.Relation,
				"age":       m.Age,
			})
		}

		memberData, err := s.store.Insert(ctx, membersTable, rows)
		if err != nil {
			// Compensate: the store has no cross-call transaction, so
			// roll the family row back by hand.
			if _, delErr := s.store.Delete(ctx, familiesTable, family.ID); delErr != nil {
				slog.Error("failed to roll back family after member insert failure",
					"family_id", family.ID, "error", delErr)
			}
			return nil, nil, fmt.Errorf("failed to create members: %w", err)
		}
		if err := json.Unmarshal(memberData, &insertedMembers); err != nil {
			return nil, nil, errors.New("member insert returned no data")
		}
	}

	s.notifyCardIssued(ctx, user, &family)

	return &family, insertedMembers, nil
}

// notifyCardIssued sends the card details to the owner. Best effort:
// failures are logged and never surfaced to the caller.
func (s *FamilyService) notifyCardIssued(ctx context.Context, user *AuthUser, family *models.Family) {
	if s.email == nil || !s.email.IsEnabled() || user.Email == "" {
		return
	}
	if err := s.email.SendCardIssuedEmail(ctx, user.Email, family); err != nil {
		slog.Error("failed to send card notification", "card_number", family.CardNumber, "error", err)
	}
}

// GetFamiliesForUser returns the caller's families with members nested
// inline, in whatever order the store returns them.
func (s *FamilyService) GetFamiliesForUser(ctx context.Context, userID string) ([]models.Family, error) {
	query := "select=*," + membersTable + "(*)&user_id=eq." + userID
	data, err := s.store.Select(ctx, familiesTable, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}

	var families []models.Family
	if err := json.Unmarshal(data, &families); err != nil {
		return nil, fmt.Errorf("failed to decode families: %w", err)
	}
	return families, nil
}

// UpdateFamily applies a partial update to a family the caller owns.
// The card number, owner and id are never client-assignable. When the
// update touches annual_income or scheme_type the scheme policy is
// re-applied so the stored tier can never contradict the stored income.
func (s *FamilyService) UpdateFamily(ctx context.Context, userID string, familyID int64, fields map[string]any) (*models.Family, error) {
	current, err := s.getOwnedFamily(ctx, userID, familyID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	for k, v := range fields {
		switch k {
		case "id", "user_id", "card_number", "fee", "discount":
			// immutable or policy-derived
		default:
			updates[k] = v
		}
	}

	income := current.AnnualIncome
	if v, ok := updates["annual_income"]; ok {
		f, ok := v.(float64)
		if !ok || f < 0 {
			return nil, utils.ValidationError{Field: "annual_income", Message: "annual_income must be a non-negative number"}
		}
		income = int(f)
	}

	if _, incomeChanged := updates["annual_income"]; incomeChanged || updates["scheme_type"] != nil {
		requested, _ := updates["scheme_type"].(string)
		if requested == "" {
			requested = current.SchemeType
		}
		assignment := scheme.Assign(income, requested)
		updates["scheme_type"] = string(assignment.Tier)
		updates["fee"] = assignment.Fee
		updates["discount"] = assignment.DiscountPercent
	}

	if len(updates) == 0 {
		return current, nil
	}

	data, err := s.store.Update(ctx, familiesTable, familyID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update family: %w", err)
	}

	var updated []models.Family
	if err := json.Unmarshal(data, &updated); err != nil || len(updated) == 0 {
		return nil, errors.New("family update returned no data")
	}
	return &updated[0], nil
}

// AddMembers appends members to a family the caller owns.
func (s *FamilyService) AddMembers(ctx context.Context, userID string, familyID int64, members []models.NewMember) ([]models.Member, error) {
	if len(members) == 0 {
		return nil, utils.ValidationError{Field: "members", Message: "members is required"}
	}
	if _, err := s.getOwnedFamily(ctx, userID, familyID); err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(members))
	for _, m := range members {
		rows = append(rows, map[string]any{
			"family_id": familyID,
			"name":      m.Name,
			"relation":  m.Relation,
			"age":       m.Age,
		})
	}

	data, err := s.store.Insert(ctx, membersTable, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to create members: %w", err)
	}

	var inserted []models.Member
	if err := json.Unmarshal(data, &inserted); err != nil {
		return nil, errors.New("member insert returned no data")
	}
	return inserted, nil
}

// UpdateMember applies a partial update to a member whose family the
// caller owns.
func (s *FamilyService) UpdateMember(ctx context.Context, userID string, memberID int64, fields map[string]any) (*models.Member, error) {
	if err := s.checkMemberOwnership(ctx, userID, memberID); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	for k, v := range fields {
		if k == "id" || k == "family_id" {
			continue
		}
		updates[k] = v
	}

	data, err := s.store.Update(ctx, membersTable, memberID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	var updated []models.Member
	if err := json.Unmarshal(data, &updated); err != nil || len(updated) == 0 {
		return nil, errors.New("member update returned no data")
	}
	return &updated[0], nil
}

// DeleteMember removes a member whose family the caller owns and
// returns the deleted row.
func (s *FamilyService) DeleteMember(ctx context.Context, userID string, memberID int64) (*models.Member, error) {
	if err := s.checkMemberOwnership(ctx, userID, memberID); err != nil {
		return nil, err
	}

	data, err := s.store.Delete(ctx, membersTable, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete member: %w", err)
	}

	var deleted []models.Member
	if err := json.Unmarshal(data, &deleted); err != nil || len(deleted) == 0 {
		return nil, ErrNotFound
	}
	return &deleted[0], nil
}

// getOwnedFamily fetches a family only if it belongs to the caller.
func (s *FamilyService) getOwnedFamily(ctx context.Context, userID string, familyID int64) (*models.Family, error) {
	query := fmt.Sprintf("select=*&id=eq.%d&user_id=eq.%s", familyID, userID)
	data, err := s.store.Select(ctx, familiesTable, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check family ownership: %w", err)
	}

	var families []models.Family
	if err := json.Unmarshal(data, &families); err != nil || len(families) == 0 {
		return nil, ErrNotFound
	}
	return &families[0], nil
}

// checkMemberOwnership resolves a member to its family and verifies the
// family belongs to the caller.
func (s *FamilyService) checkMemberOwnership(ctx context.Context, userID string, memberID int64) error {
	query := fmt.Sprintf("select=id,family_id&id=eq.%d", memberID)
	data, err := s.store.Select(ctx, membersTable, query)
	if err != nil {
		return fmt.Errorf("failed to look up member: %w", err)
	}

	var members []models.Member
	if err := json.Unmarshal(data, &members); err != nil || len(members) == 0 {
		return ErrNotFound
	}

	_, err = s.getOwnedFamily(ctx, userID, members[0].FamilyID)
	return err
}
