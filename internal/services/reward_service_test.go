package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cardvault/cardvault-backend/internal/apperrors"
	"github.com/cardvault/cardvault-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCalculatePoints(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		category string
		tier     string
		want     int
	}{
		{"dining on basic", 5000, models.CategoryDining, models.TierBasic, 100},
		{"travel on platinum", 10000, models.CategoryTravel, models.TierPlatinum, 600},
		{"shopping on gold", 1000, models.CategoryShopping, models.TierGold, 22},
		{"bills on signature", 2000, models.CategoryBills, models.TierSignature, 50},
		{"groceries on basic", 1000, models.CategoryGroceries, models.TierBasic, 15},
		{"fuel on basic", 1000, models.CategoryFuel, models.TierBasic, 20},
		{"unknown category and tier", 1000, "subscriptions", "UNRANKED", 10},
		{"below one base point", 99.99, models.CategoryDining, models.TierBasic, 0},
		{"base floors before multiplying", 199, models.CategoryDining, models.TierGold, 3},
		{"zero amount", 0, models.CategoryDining, models.TierBasic, 0},
		{"negative amount", -500, models.CategoryDining, models.TierBasic, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePoints(tt.amount, tt.category, tt.tier); got != tt.want {
				t.Errorf("CalculatePoints(%v, %q, %q) = %d, want %d", tt.amount, tt.category, tt.tier, got, tt.want)
			}
		})
	}
}

func newRewardFixture(t *testing.T) (RewardService, *fakeUserRepo, *fakeRewardEventRepo, primitive.ObjectID) {
	t.Helper()
	users := newFakeUserRepo()
	events := newFakeRewardEventRepo()
	svc := NewRewardService(users, events)
	user := &models.User{PhoneNumber: "9876543210", Name: "Asha"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return svc, users, events, user.ID
}

func completedPurchase(userID primitive.ObjectID, amount float64, category string) *models.Transaction {
	return &models.Transaction{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Amount:   amount,
		Type:     models.TransactionPurchase,
		Category: category,
		Status:   models.StatusCompleted,
		Date:     time.Now(),
	}
}

func TestAccrueForTransaction(t *testing.T) {
	svc, users, _, userID := newRewardFixture(t)
	ctx := context.Background()

	tx := completedPurchase(userID, 5000, models.CategoryDining)
	points, err := svc.AccrueForTransaction(ctx, tx, models.TierBasic)
	if err != nil {
		t.Fatalf("AccrueForTransaction: %v", err)
	}
	if points != 100 {
		t.Errorf("points = %d, want 100", points)
	}
	user, _ := users.FindByID(ctx, userID)
	if user.Points != 100 {
		t.Errorf("balance = %d, want 100", user.Points)
	}
}

func TestAccrueForTransactionIsIdempotent(t *testing.T) {
	svc, users, _, userID := newRewardFixture(t)
	ctx := context.Background()

	tx := completedPurchase(userID, 5000, models.CategoryDining)
	if _, err := svc.AccrueForTransaction(ctx, tx, models.TierBasic); err != nil {
		t.Fatalf("first accrual: %v", err)
	}
	points, err := svc.AccrueForTransaction(ctx, tx, models.TierBasic)
	if err != nil {
		t.Fatalf("second accrual: %v", err)
	}
	if points != 0 {
		t.Errorf("repeat accrual awarded %d points, want 0", points)
	}
	user, _ := users.FindByID(ctx, userID)
	if user.Points != 100 {
		t.Errorf("balance = %d, want 100 after repeat accrual", user.Points)
	}
}

func TestAccrueRetriesAfterCreditFailure(t *testing.T) {
	svc, users, events, userID := newRewardFixture(t)
	ctx := context.Background()
	tx := completedPurchase(userID, 5000, models.CategoryDining)

	// A failed balance credit must not leave the earned event behind,
	// or the idempotency check would block the retry forever.
	users.incrementErr = errors.New("write concern timeout")
	if _, err := svc.AccrueForTransaction(ctx, tx, models.TierBasic); err == nil {
		t.Fatal("expected the accrual to fail")
	}
	if _, err := events.FindByTransactionID(ctx, tx.ID); err == nil {
		t.Fatal("the event must be removed when the credit fails")
	}

	users.incrementErr = nil
	points, err := svc.AccrueForTransaction(ctx, tx, models.TierBasic)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if points != 100 {
		t.Errorf("retry awarded %d points, want 100", points)
	}
	user, _ := users.FindByID(ctx, userID)
	if user.Points != 100 {
		t.Errorf("balance = %d, want 100", user.Points)
	}
}

func TestAccrueSkipsNonCompletedAndNonPurchase(t *testing.T) {
	svc, _, events, userID := newRewardFixture(t)
	ctx := context.Background()

	pending := completedPurchase(userID, 5000, models.CategoryDining)
	pending.Status = models.StatusPending
	if points, _ := svc.AccrueForTransaction(ctx, pending, models.TierBasic); points != 0 {
		t.Error("pending transactions must not accrue")
	}

	payment := completedPurchase(userID, 5000, models.CategoryBills)
	payment.Type = models.TransactionPayment
	if points, _ := svc.AccrueForTransaction(ctx, payment, models.TierBasic); points != 0 {
		t.Error("payments must not accrue")
	}

	if all, _ := events.FindAllByUserID(ctx, userID); len(all) != 0 {
		t.Errorf("ledger has %d events, want 0", len(all))
	}
}

func TestRedeem(t *testing.T) {
	svc, users, events, userID := newRewardFixture(t)
	ctx := context.Background()
	_ = users.IncrementPoints(ctx, userID, 2000)

	remaining, err := svc.Redeem(ctx, userID, "cashback", 1500)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if remaining != 500 {
		t.Errorf("remaining = %d, want 500", remaining)
	}

	all, _ := events.FindAllByUserID(ctx, userID)
	if len(all) != 1 || all[0].Type != models.RewardRedeemed || all[0].Points != 1500 {
		t.Errorf("unexpected ledger contents: %+v", all)
	}
}

func TestRedeemInsufficientBalance(t *testing.T) {
	svc, users, _, userID := newRewardFixture(t)
	ctx := context.Background()
	_ = users.IncrementPoints(ctx, userID, 500)

	_, err := svc.Redeem(ctx, userID, "cashback", 1500)
	var iperr *apperrors.InsufficientPointsError
	if !errors.As(err, &iperr) {
		t.Fatalf("expected InsufficientPointsError, got %v", err)
	}
	if iperr.Available != 500 {
		t.Errorf("available = %d, want 500", iperr.Available)
	}

	// The refused redemption must not touch the balance.
	user, _ := users.FindByID(ctx, userID)
	if user.Points != 500 {
		t.Errorf("balance = %d, want 500", user.Points)
	}
}

func TestRedeemUnknownOption(t *testing.T) {
	svc, users, _, userID := newRewardFixture(t)
	ctx := context.Background()
	_ = users.IncrementPoints(ctx, userID, 5000)

	_, err := svc.Redeem(ctx, userID, "yacht", 1000)
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGetPointsSummary(t *testing.T) {
	svc, users, _, userID := newRewardFixture(t)
	ctx := context.Background()

	_, _ = svc.AccrueForTransaction(ctx, completedPurchase(userID, 5000, models.CategoryDining), models.TierBasic)  // 100
	_, _ = svc.AccrueForTransaction(ctx, completedPurchase(userID, 10000, models.CategoryTravel), models.TierBasic) // 300
	if _, err := svc.Redeem(ctx, userID, "cashback", 150); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	summary, err := svc.GetPoints(ctx, userID)
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	if summary.Earned != 400 {
		t.Errorf("earned = %d, want 400", summary.Earned)
	}
	if summary.Redeemed != 150 {
		t.Errorf("redeemed = %d, want 150", summary.Redeemed)
	}
	if summary.Current != 250 {
		t.Errorf("current = %d, want 250", summary.Current)
	}
	if summary.Current != summary.Earned-summary.Redeemed {
		t.Error("balance should equal earned minus redeemed")
	}

	byCategory := map[string]int{}
	for _, entry := range summary.CategoryData {
		byCategory[entry.Category] = entry.Points
	}
	if byCategory[models.CategoryDining] != 100 || byCategory[models.CategoryTravel] != 300 {
		t.Errorf("category breakdown = %v", byCategory)
	}
	for _, entry := range summary.CategoryData {
		if entry.Category == models.CategoryTravel && entry.Percentage != 75 {
			t.Errorf("travel percentage = %d, want 75", entry.Percentage)
		}
	}

	if len(summary.GraphData) != 6 {
		t.Errorf("graph months = %d, want 6", len(summary.GraphData))
	}
	var graphTotal int
	for _, month := range summary.GraphData {
		graphTotal += month.Points
	}
	if graphTotal != 400 {
		t.Errorf("graph total = %d, want 400", graphTotal)
	}

	if len(summary.RedemptionOptions) != 3 {
		t.Errorf("catalog size = %d, want 3", len(summary.RedemptionOptions))
	}

	// The balance also reconciles against the full ledger.
	history, err := svc.GetHistory(ctx, userID, 1, 20)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	var net int
	for _, event := range history {
		switch event.Type {
		case models.RewardEarned:
			net += event.Points
		case models.RewardRedeemed:
			net -= event.Points
		}
	}
	user, _ := users.FindByID(ctx, userID)
	if net != user.Points {
		t.Errorf("ledger net %d != balance %d", net, user.Points)
	}
}

func TestGetHistoryPagination(t *testing.T) {
	svc, _, _, userID := newRewardFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = svc.AccrueForTransaction(ctx, completedPurchase(userID, 5000, models.CategoryDining), models.TierBasic)
	}

	first, err := svc.GetHistory(ctx, userID, 1, 2)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(first) != 2 {
		t.Errorf("page 1 size = %d, want 2", len(first))
	}
	last, err := svc.GetHistory(ctx, userID, 3, 2)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(last) != 1 {
		t.Errorf("page 3 size = %d, want 1", len(last))
	}
	if beyond, _ := svc.GetHistory(ctx, userID, 4, 2); len(beyond) != 0 {
		t.Errorf("page past the end should be empty, got %d", len(beyond))
	}
}
